package session

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Identity
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]Identity{}}
}

func (m *MemoryStore) Put(ctx context.Context, id Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id.SessionID] = id
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.items[sessionID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sessionID)
	return nil
}
