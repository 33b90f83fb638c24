// Package cache is the process-wide image byte cache: an in-memory LRU in
// front of a persistent badger store. Only the benchmark runner clears it.
package cache

import (
	"context"
)

// Cache holds previously loaded bytes by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Add(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context) error
}

// Layered checks Memory first, then Disk, and writes through to both.
type Layered struct {
	Memory Cache
	Disk   Cache
}

func (l *Layered) layers() []Cache {
	var out []Cache

	for _, c := range []Cache{l.Memory, l.Disk} {
		if c != nil {
			out = append(out, c)
		}
	}

	return out
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool) {
	if l.Memory != nil {
		if data, ok := l.Memory.Get(ctx, key); ok {
			return data, true
		}
	}

	if l.Disk == nil {
		return nil, false
	}

	data, ok := l.Disk.Get(ctx, key)

	if ok && l.Memory != nil {
		_ = l.Memory.Add(ctx, key, data)
	}

	return data, ok
}

func (l *Layered) Add(ctx context.Context, key string, data []byte) error {
	for _, c := range l.layers() {
		if err := c.Add(ctx, key, data); err != nil {
			return err
		}
	}

	return nil
}

// Clear empties the memory layer and then the persistent layer.
func (l *Layered) Clear(ctx context.Context) error {
	for _, c := range l.layers() {
		if err := c.Clear(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Nop never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Nop) Add(context.Context, string, []byte) error  { return nil }
func (Nop) Clear(context.Context) error                { return nil }
