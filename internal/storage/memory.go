package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a process-local Bridge. Values are copied on the way in and out.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty Memory bridge.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Name implements Bridge.
func (m *Memory) Name() string {
	return "memory"
}

// Get implements Bridge.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	value, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

// Set implements Bridge.
func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

// Delete implements Bridge.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrKeyNotFound)
	}
	delete(m.data, key)
	return nil
}

// Close implements Bridge.
func (m *Memory) Close() error {
	return nil
}
