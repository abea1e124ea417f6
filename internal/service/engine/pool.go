// internal/service/engine/pool.go

package engine

import (
	"context"
)

// DefaultPoolSize bounds how many heavy computations run at once.
const DefaultPoolSize = 4

// Pool is a bounded-concurrency gate for CPU-heavy analysis work. It
// does not own goroutines; callers run fn on their own goroutine and
// the pool only limits how many run simultaneously.
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool with the given number of slots. A size below 1
// falls back to DefaultPoolSize.
func NewPool(size int) *Pool {
	if size < 1 {
		size = DefaultPoolSize
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Do runs fn once a slot is free. It returns the context error without
// running fn if ctx is done before a slot opens.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()

	return fn()
}
