package secretstore

import (
	"context"
	"sync"
)

type entryKey struct {
	scope string
	key   string
}

// Memory is a process-local Store. Nothing survives a restart unless the same
// Memory value is reused, which is what tests do to simulate one.
type Memory struct {
	mu      sync.RWMutex
	entries map[entryKey][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[entryKey][]byte)}
}

func (m *Memory) Get(_ context.Context, scope, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[entryKey{scope, key}]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, scope, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[entryKey{scope, key}] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, entryKey{scope, key})
	return nil
}

// Len returns the number of stored secrets across all scopes.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
