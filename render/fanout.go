package render

import (
	"sync"

	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
)

// Fanout 把每个快照转发给所有已注册的渲染器，渲染过程中可以增删渲染器
type Fanout struct {
	mu        sync.RWMutex
	next      int
	renderers map[int]snake.Renderer
}

func NewFanout(renderers ...snake.Renderer) *Fanout {
	f := &Fanout{renderers: make(map[int]snake.Renderer)}
	for _, r := range renderers {
		f.Add(r)
	}
	return f
}

// Add 注册 r，返回移除它的函数
func (f *Fanout) Add(r snake.Renderer) (remove func()) {
	f.mu.Lock()
	id := f.next
	f.next++
	f.renderers[id] = r
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.renderers, id)
		f.mu.Unlock()
	}
}

func (f *Fanout) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.renderers)
}

func (f *Fanout) Render(snap structs.Snapshot) {
	f.mu.RLock()
	targets := make([]snake.Renderer, 0, len(f.renderers))
	for _, r := range f.renderers {
		targets = append(targets, r)
	}
	f.mu.RUnlock()

	for _, r := range targets {
		r.Render(snap)
	}
}
