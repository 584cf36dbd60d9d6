package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRejectsBadArguments(t *testing.T) {
	if _, err := New(0, func() {}); err == nil {
		t.Error("expected error for zero period")
	}
	if _, err := New(time.Millisecond, nil); err == nil {
		t.Error("expected error for nil tick function")
	}
}

func TestTicksUntilStopped(t *testing.T) {
	var count atomic.Int32
	s, err := New(2*time.Millisecond, func() { count.Add(1) })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()

	deadline := time.After(2 * time.Second)
	for count.Load() < 5 {
		select {
		case <-deadline:
			t.Fatalf("only %d ticks before deadline", count.Load())
		case <-time.After(time.Millisecond):
		}
	}

	s.Stop()
	<-s.Done()
	after := count.Load()
	time.Sleep(20 * time.Millisecond)
	if got := count.Load(); got != after {
		t.Errorf("ticks after Stop: %d -> %d", after, got)
	}
}

func TestStopFromInsideTick(t *testing.T) {
	var count atomic.Int32
	var s *Scheduler
	s, err := New(time.Millisecond, func() {
		if count.Add(1) == 3 {
			s.Stop()
		}
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if got := count.Load(); got != 3 {
		t.Errorf("ticks = %d, want 3", got)
	}
}

func TestStopBeforeStart(t *testing.T) {
	s, err := New(time.Millisecond, func() { t.Error("tick after Stop") })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Stop()
	s.Start()
	s.Stop()
	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed for a scheduler that never ran")
	}
	time.Sleep(5 * time.Millisecond)
}

func TestSetPeriodInsideTickAppliesToNextTick(t *testing.T) {
	var (
		mu    sync.Mutex
		stamp []time.Time
	)
	var s *Scheduler
	s, err := New(5*time.Millisecond, func() {
		mu.Lock()
		stamp = append(stamp, time.Now())
		n := len(stamp)
		mu.Unlock()
		switch n {
		case 1:
			s.SetPeriod(80 * time.Millisecond)
		case 2:
			s.Stop()
		}
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	<-s.Done()

	mu.Lock()
	defer mu.Unlock()
	if len(stamp) != 2 {
		t.Fatalf("ticks = %d, want 2", len(stamp))
	}
	if gap := stamp[1].Sub(stamp[0]); gap < 80*time.Millisecond {
		t.Errorf("gap after SetPeriod = %v, want >= 80ms", gap)
	}
}

func TestSetPeriodRejectsNonPositive(t *testing.T) {
	s, err := New(time.Second, func() {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.SetPeriod(-time.Millisecond); err == nil {
		t.Error("expected error")
	}
	if s.Period() != time.Second {
		t.Errorf("period changed to %v", s.Period())
	}
}

func TestTicksNeverOverlap(t *testing.T) {
	var running, overlaps, count atomic.Int32
	s, err := New(time.Millisecond, func() {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(3 * time.Millisecond) // 比周期更长
		running.Add(-1)
		count.Add(1)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	time.Sleep(40 * time.Millisecond)
	s.Stop()
	<-s.Done()

	if overlaps.Load() != 0 {
		t.Errorf("%d overlapping ticks", overlaps.Load())
	}
	if count.Load() == 0 {
		t.Error("no ticks ran")
	}
}
