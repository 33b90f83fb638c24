package source

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"imgbench/model"
)

// Memory is a map-backed store. GetBytes hands out the stored slice itself.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte

	// Volatile makes Put overwrite an existing value in place when it fits,
	// so slices returned earlier may change underneath their readers.
	Volatile bool
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(model.ErrCancelled, "get %q", key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[key]

	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "key %q", key)
	}

	return data, nil
}

func (m *Memory) ListKeys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))

	for k := range m.data {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys, nil
}

func (m *Memory) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.data[key]; ok && m.Volatile && cap(old) >= len(data) {
		m.data[key] = append(old[:0], data...)
		return nil
	}

	m.data[key] = append([]byte(nil), data...)

	return nil
}

func (m *Memory) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string][]byte)

	return nil
}

func (m *Memory) StableBuffers() bool {
	return !m.Volatile
}
