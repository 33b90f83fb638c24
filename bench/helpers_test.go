package bench

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"imgbench/cache"
	"imgbench/fetch"
	"imgbench/model"
)

// loadTracker serves fixed bytes after delay and tracks how many loads
// overlap, per source and in total.
type loadTracker struct {
	data  map[string][]byte
	delay time.Duration

	mu           sync.Mutex
	active       map[model.SourceKind]int
	maxPerSource int
	total        int
	maxTotal     int
	order        []string
	calls        atomic.Int32
}

func newLoadTracker(delay time.Duration, keys ...string) *loadTracker {
	data := make(map[string][]byte)

	for _, k := range keys {
		data[k] = []byte("bytes of " + k)
	}

	return &loadTracker{data: data, delay: delay, active: make(map[model.SourceKind]int)}
}

func (p *loadTracker) Load(ctx context.Context, req fetch.Request) ([]byte, error) {
	p.calls.Add(1)

	p.mu.Lock()
	p.order = append(p.order, string(req.Source)+"/"+req.Key)
	p.active[req.Source]++
	p.total++
	p.maxPerSource = max(p.maxPerSource, p.active[req.Source])
	p.maxTotal = max(p.maxTotal, p.total)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.active[req.Source]--
		p.total--
		p.mu.Unlock()
	}()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, errors.Wrapf(model.ErrCancelled, "load %q", req.Key)
		}
	}

	data, ok := p.data[req.Key]

	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "key %q", req.Key)
	}

	return data, nil
}

func (p *loadTracker) inFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.total
}

func (p *loadTracker) snapshot() (order []string, maxPerSource, maxTotal int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.order...), p.maxPerSource, p.maxTotal
}

type clearCounter struct {
	cache.Nop
	clears atomic.Int32
}

func (c *clearCounter) Clear(context.Context) error {
	c.clears.Add(1)
	return nil
}

// clearSpy records every Clear on the wrapped cache together with the number
// of loads that were running at that moment.
type clearSpy struct {
	cache.Cache
	loads *loadTracker

	mu     sync.Mutex
	clears int
	busy   int
	errs   []error
}

func (c *clearSpy) Clear(ctx context.Context) error {
	running := c.loads.inFlight()
	err := c.Cache.Clear(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clears++

	if running > 0 {
		c.busy++
	}

	if err != nil {
		c.errs = append(c.errs, err)
	}

	return err
}

func (c *clearSpy) snapshot() (clears, busy int, errs []error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.clears, c.busy, append([]error(nil), c.errs...)
}

// cleanupCounter wraps fetchers and counts Cleanup calls per item key.
type cleanupCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *cleanupCounter) wrap(f fetch.Fetcher) fetch.Fetcher {
	return &countedFetcher{Fetcher: f, counter: c}
}

func (c *cleanupCounter) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[key]
}

type countedFetcher struct {
	fetch.Fetcher
	counter *cleanupCounter
}

func (f *countedFetcher) Start(ctx context.Context, req fetch.Request) fetch.Handle {
	return &countedHandle{Handle: f.Fetcher.Start(ctx, req), key: req.Key, counter: f.counter}
}

type countedHandle struct {
	fetch.Handle
	key     string
	counter *cleanupCounter
}

func (h *countedHandle) Cleanup() {
	h.Handle.Cleanup()

	h.counter.mu.Lock()
	h.counter.counts[h.key]++
	h.counter.mu.Unlock()
}

// hangingSource blocks on one key until the caller gives up.
type hangingSource struct {
	data map[string][]byte
	hang string
}

func (s *hangingSource) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if key == s.hang {
		<-ctx.Done()
		return nil, errors.Wrapf(model.ErrCancelled, "get %q", key)
	}

	data, ok := s.data[key]

	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "key %q", key)
	}

	return data, nil
}

func (s *hangingSource) ListKeys(context.Context) ([]string, error) {
	return nil, nil
}

func jobsFor(src model.SourceKind, st fetch.Strategy, keys ...string) []Job {
	jobs := make([]Job, 0, len(keys))

	for i, k := range keys {
		jobs = append(jobs, Job{
			Request:   fetch.Request{Key: k, Source: src, Strategy: st, SkipCache: true},
			Iteration: uint32(i + 1),
		})
	}

	return jobs
}
