package fetch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"imgbench/model"
)

// Handle is one in-flight fetch. It yields exactly one Result.
type Handle interface {
	// Await blocks until the result is ready. If ctx ends first the handle
	// is cancelled and the cancellation failure is returned.
	Await(ctx context.Context) Result
	// Cancel stops the work as soon as it next checks, and delivers a
	// cancellation failure unless a result was already delivered.
	Cancel()
	// Cleanup cancels outstanding work and releases the delivered payload.
	// Safe to call any number of times.
	Cleanup()
	// Done is closed once the result is delivered.
	Done() <-chan struct{}
}

// task is the Handle shared by every strategy. delivered is the single
// writer guard: whichever of completion and cancellation flips it first
// owns the result, the loser is dropped.
type task struct {
	key       string
	strategy  Strategy
	cancel    context.CancelFunc
	done      chan struct{}
	delivered atomic.Bool
	res       Result

	cleanupOnce sync.Once
	onCleanup   []func()
}

func newTask(key string, strategy Strategy, cancel context.CancelFunc) *task {
	return &task{
		key:      key,
		strategy: strategy,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func (t *task) deliver(r Result) bool {
	if !t.delivered.CompareAndSwap(false, true) {
		return false
	}

	t.res = r
	close(t.done)

	return true
}

func (t *task) cancelled() Result {
	return Result{Err: errors.Wrapf(model.ErrCancelled, "fetch %q (%s)", t.key, t.strategy)}
}

func (t *task) Await(ctx context.Context) Result {
	select {
	case <-t.done:
		return t.res
	case <-ctx.Done():
		t.Cancel()
		<-t.done

		return t.res
	}
}

func (t *task) Cancel() {
	t.cancel()
	t.deliver(t.cancelled())
}

func (t *task) Cleanup() {
	t.cleanupOnce.Do(func() {
		t.Cancel()
		<-t.done

		if t.res.Payload != nil {
			_ = t.res.Payload.Close()
		}

		for _, fn := range t.onCleanup {
			fn()
		}
	})
}

func (t *task) Done() <-chan struct{} {
	return t.done
}
