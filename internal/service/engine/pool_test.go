// internal/service/engine/pool_test.go

package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	t.Run("limits concurrent work", func(t *testing.T) {
		pool := NewPool(2)
		var active, peak int32
		var wg sync.WaitGroup
		gate := make(chan struct{})

		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = pool.Do(context.Background(), func() error {
					n := atomic.AddInt32(&active, 1)
					for {
						p := atomic.LoadInt32(&peak)
						if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
							break
						}
					}
					<-gate
					atomic.AddInt32(&active, -1)
					return nil
				})
			}()
		}

		close(gate)
		wg.Wait()
		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	})

	t.Run("returns the function error", func(t *testing.T) {
		pool := NewPool(1)
		err := pool.Do(context.Background(), func() error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("cancelled context skips the work", func(t *testing.T) {
		pool := NewPool(1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		err := pool.Do(ctx, func() error {
			ran = true
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, ran)
	})

	t.Run("invalid size falls back to the default", func(t *testing.T) {
		pool := NewPool(0)
		assert.Equal(t, DefaultPoolSize, cap(pool.slots))
	})
}
