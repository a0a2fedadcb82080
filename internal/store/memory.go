package store

import (
	"context"
	"sync"
)

// Memory is an in-process KV used in tests and as a degraded fallback when no
// Redis is configured.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	lists  map[string][]string
}

func NewMemory() *Memory {
	return &Memory{
		values: map[string]string{},
		lists:  map[string][]string{},
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	delete(m.lists, key)
	return nil
}

func (m *Memory) PushCapped(ctx context.Context, key, value string, max int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]string{value}, m.lists[key]...)
	if len(list) > max {
		list = list[:max]
	}
	m.lists[key] = list
	return nil
}

func (m *Memory) List(ctx context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.lists[key]))
	copy(out, m.lists[key])
	return out, nil
}
