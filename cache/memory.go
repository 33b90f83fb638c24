package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// Memory is a fixed-size in-memory LRU.
type Memory struct {
	cache *lru.Cache
}

// NewMemory returns an LRU holding at most size entries.
func NewMemory(size int) (*Memory, error) {
	c, err := lru.New(size)

	if err != nil {
		return nil, errors.Wrapf(err, "failed to create memory cache of size: %d", size)
	}

	return &Memory{cache: c}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.cache.Get(key)

	if !ok {
		return nil, false
	}

	return v.([]byte), true
}

func (m *Memory) Add(_ context.Context, key string, data []byte) error {
	_ = m.cache.Add(key, data)
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.cache.Purge()
	return nil
}

func (m *Memory) Len() int {
	return m.cache.Len()
}

var _ Cache = (*Memory)(nil)
