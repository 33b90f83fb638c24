package fetch

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"imgbench/model"
	"imgbench/source"
)

// Fetcher retrieves one item per Start from its origin. Implementations
// differ only in how they turn the retrieved slice into a Payload.
type Fetcher interface {
	Strategy() Strategy
	// Start returns immediately; the work runs on its own goroutine.
	Start(ctx context.Context, req Request) Handle
}

// NewFetcher returns the Fetcher for strategy s reading from origin.
func NewFetcher(s Strategy, origin source.ByteSource) (Fetcher, error) {
	if origin == nil {
		return nil, errors.Wrapf(model.ErrInvalidRequest, "no origin for %s fetcher", s)
	}

	switch s {
	case Stream:
		return &StreamFetcher{Origin: origin}, nil
	case Buffer:
		return &BufferFetcher{Origin: origin}, nil
	case ZeroCopy:
		if !source.IsStable(origin) {
			return nil, errors.Wrap(model.ErrInvalidRequest, "zero-copy needs an origin with stable buffers")
		}

		return &ZeroCopyFetcher{Origin: origin}, nil
	}

	return nil, errors.Wrapf(model.ErrInvalidRequest, "unknown transport strategy %q", string(s))
}

// StreamFetcher delivers a sequential reader over the retrieved bytes.
type StreamFetcher struct {
	Origin source.ByteSource
}

func (f *StreamFetcher) Strategy() Strategy { return Stream }

func (f *StreamFetcher) Start(ctx context.Context, req Request) Handle {
	return start(ctx, req.Key, Stream, f.Origin, func(data []byte) Payload {
		return newStreamPayload(data)
	})
}

// BufferFetcher copies the retrieved bytes into a fresh buffer before
// signalling ready.
type BufferFetcher struct {
	Origin source.ByteSource
}

func (f *BufferFetcher) Strategy() Strategy { return Buffer }

func (f *BufferFetcher) Start(ctx context.Context, req Request) Handle {
	return start(ctx, req.Key, Buffer, f.Origin, func(data []byte) Payload {
		buf := make([]byte, len(data))
		copy(buf, data)

		return newSlicePayload(buf)
	})
}

// ZeroCopyFetcher hands out the origin's slice without copying. Only valid
// for origins that never reuse a returned slice.
type ZeroCopyFetcher struct {
	Origin source.ByteSource
}

func (f *ZeroCopyFetcher) Strategy() Strategy { return ZeroCopy }

func (f *ZeroCopyFetcher) Start(ctx context.Context, req Request) Handle {
	return start(ctx, req.Key, ZeroCopy, f.Origin, func(data []byte) Payload {
		return newSlicePayload(data)
	})
}

func start(
	ctx context.Context,
	key string,
	strategy Strategy,
	origin source.ByteSource,
	materialize func([]byte) Payload,
) *task {
	ctx, cancel := context.WithCancel(ctx)
	t := newTask(key, strategy, cancel)

	fetchesInFlight.WithLabelValues(strategy.String()).Inc()

	go func() {
		defer fetchesInFlight.WithLabelValues(strategy.String()).Dec()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logrus.WithFields(logrus.Fields{"key": key, "strategy": strategy}).Errorf("fetch panicked: %v", r)
				t.deliver(Result{Err: errors.Wrapf(model.ErrIO, "fetch %q panicked: %v", key, r)})
			}
		}()

		run(ctx, t, origin, materialize)
	}()

	return t
}

// run checks for cancellation before the origin call, after it, and after
// materializing, mirroring where the work can be abandoned cheaply.
func run(ctx context.Context, t *task, origin source.ByteSource, materialize func([]byte) Payload) {
	if ctx.Err() != nil {
		t.deliver(t.cancelled())
		return
	}

	data, err := origin.GetBytes(ctx, t.key)

	if err != nil {
		if ctx.Err() != nil {
			t.deliver(t.cancelled())
			return
		}

		t.deliver(Result{Err: err})

		return
	}

	if ctx.Err() != nil {
		t.deliver(t.cancelled())
		return
	}

	p := materialize(data)

	if ctx.Err() != nil || !t.deliver(Result{Payload: p}) {
		// late completion: nobody will see this payload
		fetchesDiscarded.WithLabelValues(t.strategy.String()).Inc()
		_ = p.Close()

		t.deliver(t.cancelled())
	}
}
