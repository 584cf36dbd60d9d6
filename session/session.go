// Package session 每个玩家一局游戏：由调度器驱动引擎，并接入渲染和输入
package session

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-web/input"
	"github.com/hoshinonyaruko/snake-web/render"
	"github.com/hoshinonyaruko/snake-web/scheduler"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
)

// ErrNotFound 会话 id 不存在
var ErrNotFound = structs.ErrSessionNotFound

// Store 持久化会话。Load 和 Delete 对不存在的 id 返回
// 与 structs.ErrSessionNotFound 匹配的错误
type Store interface {
	Save(rec structs.SessionRecord) error
	Load(id string) (structs.SessionRecord, error)
	Delete(id string) error
}

// Options 会话的配置
type Options struct {
	ID        string
	Settings  snake.Settings
	Rand      *rand.Rand
	Renderers []snake.Renderer
	Inputs    []snake.InputSource
	Store     Store
	Logger    *slog.Logger
	Resume    *structs.Snapshot // 从持久化状态恢复
	CreatedAt time.Time
}

// Session 用一把锁串行化所有引擎调用，tick 和输入事件逐个执行，
// 每个都完整执行后才处理下一个
type Session struct {
	id      string
	created time.Time
	store   Store
	log     *slog.Logger
	out     *render.Fanout
	latch   input.Latch

	mu     sync.Mutex
	engine *snake.Engine
	sched  *scheduler.Scheduler
	closed bool
}

// New 创建会话并接入输入源，调用 Start 之后才开始 tick
func New(opts Options) (*Session, error) {
	var (
		engine *snake.Engine
		err    error
	)
	if opts.Resume != nil {
		engine, err = snake.Restore(opts.Settings, opts.Rand, *opts.Resume)
	} else {
		engine, err = snake.NewEngine(opts.Settings, opts.Rand)
	}
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	created := opts.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	s := &Session{
		id:      opts.ID,
		created: created,
		store:   opts.Store,
		log:     log.With("session", opts.ID),
		out:     render.NewFanout(opts.Renderers...),
		engine:  engine,
	}
	for _, in := range opts.Inputs {
		in.Attach(s)
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Start 渲染当前状态并开始 tick。恢复的会话如果已经结束，则等待重新开始
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.sched != nil {
		return
	}
	if s.engine.Over() {
		s.latch.Arm()
	} else {
		s.startScheduler()
	}
	s.out.Render(s.engine.Snapshot())
}

// startScheduler 按引擎当前间隔启动新的调度器，调用方持有 mu
func (s *Session) startScheduler() {
	var sched *scheduler.Scheduler
	sched, err := scheduler.New(interval(s.engine.IntervalMs()), func() { s.tick(sched) })
	if err != nil {
		// 引擎保证间隔为正
		s.log.Error("start scheduler", "error", err)
		return
	}
	s.sched = sched
	sched.Start()
}

func (s *Session) stopScheduler() {
	if s.sched != nil {
		s.sched.Stop()
		s.sched = nil
	}
}

func (s *Session) tick(owner *scheduler.Scheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// 重启后旧调度器残留的 tick 直接丢弃
	if s.closed || s.sched != owner {
		return
	}

	res := s.engine.Tick()
	if res.IntervalChanged {
		if err := owner.SetPeriod(interval(res.IntervalMs)); err != nil {
			s.log.Error("speed up", "error", err)
		} else {
			s.log.Debug("speed up", "interval_ms", res.IntervalMs, "score", s.engine.Score())
		}
	}
	if res.GameOver {
		s.stopScheduler()
		s.latch.Arm()
		s.log.Info("game over", "cause", res.Cause, "score", s.engine.Score())
		s.persist()
	}
	s.out.Render(s.engine.Snapshot())
}

// RequestDirection 记录下一次 tick 使用的方向
func (s *Session) RequestDirection(dir structs.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.engine.RequestDirection(dir)
}

// Tap 游戏结束后的第一次点击重新开始游戏
func (s *Session) Tap() bool {
	if !s.latch.Consume() {
		return false
	}
	s.Restart()
	return true
}

// Restart 以初始间隔开始新的一局
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopScheduler()
	s.engine.Restart()
	s.latch.Disarm()
	s.startScheduler()
	s.log.Info("game restarted")
	s.persist()
	s.out.Render(s.engine.Snapshot())
}

// Snapshot 返回最近一次完整操作之后的状态
func (s *Session) Snapshot() structs.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

// Running 调度器是否在运行
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}

// Period 返回调度器当前周期，未运行时为 0
func (s *Session) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return 0
	}
	return s.sched.Period()
}

// AddRenderer 注册渲染器并立即把当前状态渲染给它，返回的函数用于移除
func (s *Session) AddRenderer(r snake.Renderer) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	detach := s.out.Add(r)
	s.log.Debug("renderer attached", "renderers", s.out.Len())
	r.Render(s.engine.Snapshot())
	return func() {
		detach()
		s.log.Debug("renderer detached", "renderers", s.out.Len())
	}
}

// Close 停止 tick 并保存最终状态，重复调用无效果
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopScheduler()
	s.persist()
	s.closed = true
}

// persist 保存当前状态，调用方持有 mu
func (s *Session) persist() {
	if s.store == nil {
		return
	}
	rec := structs.SessionRecord{
		SessionID: s.id,
		State:     s.engine.Snapshot(),
		CreatedAt: s.created,
		UpdatedAt: time.Now(),
	}
	if err := s.store.Save(rec); err != nil {
		s.log.Error("save session", "error", err)
	}
}

func interval(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
