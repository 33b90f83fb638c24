package fetch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"imgbench/model"
)

// gatedSource serves fixed bytes; keys listed in gates block until the gate
// is closed or ctx ends. ignoreCtx makes blocked reads ignore cancellation.
type gatedSource struct {
	mu        sync.Mutex
	data      map[string][]byte
	gates     map[string]chan struct{}
	ignoreCtx bool
	calls     atomic.Int32
	entered   chan string
}

func newGatedSource(data map[string][]byte) *gatedSource {
	return &gatedSource{
		data:    data,
		gates:   make(map[string]chan struct{}),
		entered: make(chan string, 16),
	}
}

func (s *gatedSource) gate(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{})
	s.gates[key] = ch

	return ch
}

func (s *gatedSource) GetBytes(ctx context.Context, key string) ([]byte, error) {
	s.calls.Add(1)

	s.mu.Lock()
	gate := s.gates[key]
	data, ok := s.data[key]
	s.mu.Unlock()

	if gate != nil {
		select {
		case s.entered <- key:
		default:
		}

		if s.ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, errors.Wrap(model.ErrCancelled, key)
			}
		}
	}

	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "key %q", key)
	}

	return data, nil
}

func (s *gatedSource) ListKeys(context.Context) ([]string, error) {
	return nil, nil
}

// countingFetcher counts Cleanup calls that reach each handle.
type countingFetcher struct {
	Fetcher
	cleanups atomic.Int32
	starts   atomic.Int32
}

func (f *countingFetcher) Start(ctx context.Context, req Request) Handle {
	f.starts.Add(1)
	h := f.Fetcher.Start(ctx, req).(*task)
	h.onCleanup = append(h.onCleanup, func() { f.cleanups.Add(1) })

	return h
}
