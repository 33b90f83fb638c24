// Package source holds the byte stores the fetch pipeline reads from: a
// directory of files, a SQLite table of blobs, a remote HTTP origin and an
// in-memory map.
package source

import (
	"context"

	"github.com/pkg/errors"

	"imgbench/model"
)

// ByteSource returns the raw bytes stored for a logical item name.
type ByteSource interface {
	// GetBytes returns model.ErrNotFound when key has no entry.
	GetBytes(ctx context.Context, key string) ([]byte, error)
	// ListKeys is used for setup and teardown only.
	ListKeys(ctx context.Context) ([]string, error)
}

// FileReader reads a whole file. Faults are reported as model.ErrIO.
type FileReader interface {
	ReadBytes(path string) ([]byte, error)
}

// Writer stores bytes under a key, replacing any previous value.
type Writer interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Clearer removes everything a store holds.
type Clearer interface {
	ClearAll(ctx context.Context) error
}

// Stable is implemented by sources that can say whether a returned slice
// stays untouched after GetBytes returns. Sources that do not implement it
// hand out slices they never reuse.
type Stable interface {
	StableBuffers() bool
}

// IsStable reports whether slices from src may be exposed without a copy.
func IsStable(src ByteSource) bool {
	if s, ok := src.(Stable); ok {
		return s.StableBuffers()
	}

	return true
}

// classify turns a driver or transport error into the outcome taxonomy,
// preferring cancellation when ctx has ended.
func classify(ctx context.Context, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(model.ErrCancelled, format+": %v", append(args, err)...)
	}

	return errors.Wrapf(model.ErrIO, format+": %v", append(args, err)...)
}
