// Package scheduler 按可调整的固定周期调用回调
package scheduler

import (
	"fmt"
	"sync"
	"time"
)

// Scheduler 在单个 goroutine 上每个周期调用一次 tick 函数，tick 之间不会重叠。
// 每次 tick 前的等待时间取上一次 tick 结束时生效的周期
type Scheduler struct {
	fn func()

	mu      sync.Mutex
	period  time.Duration
	started bool
	stopped bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// New 返回尚未启动的调度器，period 必须为正
func New(period time.Duration, fn func()) (*Scheduler, error) {
	if period <= 0 {
		return nil, fmt.Errorf("scheduler period must be positive, got %v", period)
	}
	if fn == nil {
		return nil, fmt.Errorf("scheduler needs a tick function")
	}
	return &Scheduler{
		fn:     fn,
		period: period,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Start 开始计时，第一次 tick 在一个周期之后触发。重复调用或在 Stop 之后调用
// 不做任何事
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.loop(s.period)
}

// Stop 停止计时。Stop 返回后不会再有新的 tick 开始，正在执行的 tick 会执行完；
// 每次 tick 开始前都在锁内检查停止标志。可以在 tick 函数内部调用。
// 等待 Done 可以确认循环已经退出
func (s *Scheduler) Stop() {
	s.mu.Lock()
	already := s.stopped
	s.stopped = true
	started := s.started
	s.mu.Unlock()
	if already {
		return
	}
	close(s.quit)
	if !started {
		close(s.done)
	}
}

// SetPeriod 修改周期。在 tick 函数内调用时决定下一次 tick 前的等待，
// 在其他地方调用时按新周期重新计时
func (s *Scheduler) SetPeriod(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("scheduler period must be positive, got %v", d)
	}
	s.mu.Lock()
	s.period = d
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Period 返回当前周期
func (s *Scheduler) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Done 在调度器停止且没有 tick 正在执行时关闭
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) loop(period time.Duration) {
	defer close(s.done)

	timer := time.NewTimer(period)
	defer timer.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-s.wake:
			// 周期被外部修改，按新周期重新计时
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.Period())
		case <-timer.C:
			if !s.tick() {
				return
			}
			// tick 内部的 SetPeriod 已经体现在 Period() 中
			select {
			case <-s.wake:
			default:
			}
			timer.Reset(s.Period())
		}
	}
}

// tick 在确认未停止后执行一次回调
func (s *Scheduler) tick() bool {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return false
	}
	s.fn()
	return true
}
