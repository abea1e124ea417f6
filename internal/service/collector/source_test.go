// internal/service/collector/source_test.go

package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle(t *testing.T) {
	t.Run("concurrent callers are spaced at least interval apart", func(t *testing.T) {
		const interval = 20 * time.Millisecond
		source := NewSource("token", interval, nil)

		var (
			mu     sync.Mutex
			stamps []time.Time
			wg     sync.WaitGroup
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, source.throttle(context.Background()))
				mu.Lock()
				stamps = append(stamps, time.Now())
				mu.Unlock()
			}()
		}
		wg.Wait()

		require.Len(t, stamps, 8)
		// The first caller passes immediately; every later one waits a
		// full interval behind the previous stamp.
		earliest, latest := stamps[0], stamps[0]
		for _, s := range stamps[1:] {
			if s.Before(earliest) {
				earliest = s
			}
			if s.After(latest) {
				latest = s
			}
		}
		assert.GreaterOrEqual(t, latest.Sub(earliest), 7*interval)
	})

	t.Run("zero interval never waits", func(t *testing.T) {
		source := NewSource("token", 0, nil)
		start := time.Now()
		require.NoError(t, source.throttle(context.Background()))
		require.NoError(t, source.throttle(context.Background()))
		assert.Less(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		source := NewSource("token", time.Minute, nil)
		require.NoError(t, source.throttle(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := source.throttle(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
