// 内存中的帧缓存，每个会话只保留最新一帧
package memimg

import (
	"bytes"
	"image"
	_ "image/png"
	"sync"
)

// Store 保存每个会话最新一帧的编码数据
type Store struct {
	mu     sync.RWMutex
	frames map[string][]byte
}

func NewStore() *Store {
	return &Store{frames: make(map[string][]byte)}
}

// Put 替换会话的最新帧
func (s *Store) Put(id string, frame []byte) {
	s.mu.Lock()
	s.frames[id] = frame
	s.mu.Unlock()
}

// Get 返回最新一帧，调用方不能修改返回的字节
func (s *Store) Get(id string) ([]byte, bool) {
	s.mu.RLock()
	frame, exists := s.frames[id]
	s.mu.RUnlock()
	return frame, exists
}

// Image 解码最新帧
func (s *Store) Image(id string) (image.Image, bool) {
	frame, exists := s.Get(id)
	if !exists {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, false
	}
	return img, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.frames, id)
	s.mu.Unlock()
}
