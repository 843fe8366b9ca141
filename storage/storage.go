package storage

import (
	"context"
	"sync"
)

// Medium defines a public type used by goSession APIs.
//
// Medium implementations must be safe for concurrent use. Get reports absence
// via the second return value rather than an error; errors are reserved for
// medium failures (I/O, network).
type Medium interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Memory defines a public type used by goSession APIs.
//
// Memory holds values for the lifetime of the process. It backs non-persistent
// ("remember me" off) sessions and doubles as the test medium.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory describes the newmemory operation and its observable behavior.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get describes the get operation and its observable behavior.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set describes the set operation and its observable behavior.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	return nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete is idempotent; deleting an absent key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
