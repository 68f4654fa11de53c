// Package workers provides a bounded pool for running blocking calls (for
// example a remote inference request) off the caller's goroutine. The caller
// waits for the result but stays responsive to its own context, so a stuck
// call cannot hold a request past its deadline.
package workers

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 4

// Pool bounds how many jobs run at once. It is safe for concurrent use.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool returns a pool running at most size jobs concurrently.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size reports the concurrency bound.
func (p *Pool) Size() int { return p.size }

// Run executes fn on a pool goroutine and waits for its result or for ctx to
// end, whichever comes first.
//
// fn receives ctx and should honor it; if the caller gives up first, the slot
// stays held until fn returns. A panic inside fn is converted into an error.
func Run[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer p.sem.Release(1)
		defer func() {
			if rec := recover(); rec != nil {
				done <- result{err: fmt.Errorf("worker panic: %v", rec)}
			}
		}()
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
