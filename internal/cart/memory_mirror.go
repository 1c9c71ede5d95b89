package cart

import (
	"context"
	"sync"
)

// MemoryMirror is a process-local Mirror for development and tests.
type MemoryMirror struct {
	mu    sync.RWMutex
	items map[string]Cart
}

// NewMemoryMirror returns an empty MemoryMirror.
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{items: map[string]Cart{}}
}

func (m *MemoryMirror) Put(ctx context.Context, sessionID string, c Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[sessionID] = c.clone()
	return nil
}

func (m *MemoryMirror) Get(ctx context.Context, sessionID string) (*Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[sessionID]
	if !ok {
		return nil, nil
	}
	out := c.clone()
	return &out, nil
}
