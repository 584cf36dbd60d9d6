package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-web/snake"
)

// HubOptions 会话注册表的配置
type HubOptions struct {
	Settings snake.Settings
	Store    Store
	Logger   *slog.Logger
	// Renderers 为每个新会话创建固定的渲染器，例如 PNG 帧缓存
	Renderers func(id string, settings snake.Settings) []snake.Renderer
	// OnDelete 在会话被删除后调用
	OnDelete func(id string)
}

// Hub 保存所有在线会话
type Hub struct {
	store     Store
	log       *slog.Logger
	renderers func(string, snake.Settings) []snake.Renderer
	onDelete  func(string)

	mu       sync.Mutex
	settings snake.Settings
	sessions map[string]*Session
	closed   bool
}

func NewHub(opts HubOptions) *Hub {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		store:     opts.Store,
		log:       log,
		renderers: opts.Renderers,
		onDelete:  opts.OnDelete,
		settings:  opts.Settings,
		sessions:  make(map[string]*Session),
	}
}

// SetSettings 修改之后新建会话使用的设置
func (h *Hub) SetSettings(s snake.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	h.mu.Lock()
	h.settings = s
	h.mu.Unlock()
	return nil
}

func (h *Hub) Settings() snake.Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings
}

// Create 用新的 id 开始一局游戏
func (h *Hub) Create() (*Session, error) {
	id := uuid.New().String()
	settings := h.Settings()
	s, err := New(Options{
		ID:        id,
		Settings:  settings,
		Renderers: h.fixedRenderers(id, settings),
		Store:     h.store,
		Logger:    h.log,
	})
	if err != nil {
		return nil, err
	}
	if err := h.register(s); err != nil {
		return nil, err
	}
	s.Start()
	h.log.Info("session created", "session", id)
	return s, nil
}

// Get 返回在线会话，不在内存中时从存储恢复
func (h *Hub) Get(id string) (*Session, error) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if ok {
		return s, nil
	}
	if h.store == nil || id == "" {
		return nil, ErrNotFound
	}

	rec, err := h.store.Load(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	// 按保存时的网格恢复，起点放不下时移到中心
	settings := h.Settings().ForGrid(rec.State.GridDimension)
	resumed, err := New(Options{
		ID:        id,
		Settings:  settings,
		Renderers: h.fixedRenderers(id, settings),
		Store:     h.store,
		Logger:    h.log,
		Resume:    &rec.State,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("resume session %s: %w", id, err)
	}
	if err := h.register(resumed); err != nil {
		// 并发恢复时以先注册的为准
		h.mu.Lock()
		existing, ok := h.sessions[id]
		h.mu.Unlock()
		if ok {
			return existing, nil
		}
		return nil, err
	}
	resumed.Start()
	h.log.Info("session resumed", "session", id, "score", rec.State.Score)
	return resumed, nil
}

func (h *Hub) register(s *Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New("hub closed")
	}
	if _, exists := h.sessions[s.ID()]; exists {
		return fmt.Errorf("session %s already registered", s.ID())
	}
	h.sessions[s.ID()] = s
	return nil
}

func (h *Hub) fixedRenderers(id string, settings snake.Settings) []snake.Renderer {
	if h.renderers == nil {
		return nil
	}
	return h.renderers(id, settings)
}

// Delete 停止会话并从内存和存储中移除，会话不存在时返回 ErrNotFound
func (h *Hub) Delete(id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		if h.store == nil {
			return ErrNotFound
		}
		// 只存在于存储中的会话也可以删除
		if _, err := h.store.Load(id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	} else {
		s.Close()
	}
	if h.store != nil {
		if err := h.store.Delete(id); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete session %s: %w", id, err)
		}
	}
	if h.onDelete != nil {
		h.onDelete(id)
	}
	h.log.Info("session deleted", "session", id)
	return nil
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close 停止并保存所有会话，之后不再接受新会话
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	h.log.Info("hub closed", "sessions", len(sessions))
}
