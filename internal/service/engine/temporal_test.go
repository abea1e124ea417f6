// internal/service/engine/temporal_test.go

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanscope/internal/domain/channel"
)

func postAt(id int64, ts time.Time) channel.Post {
	return channel.Post{ID: id, Text: "post", PublishedAt: ts}
}

func TestHourlyActivity(t *testing.T) {
	a := NewTemporalAnalyzer(nil)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("buckets by hour", func(t *testing.T) {
		posts := []channel.Post{
			postAt(1, base),
			postAt(2, base.Add(10*time.Minute)),
			postAt(3, base.Add(5*time.Hour)),
		}
		activity := a.HourlyActivity(posts)
		assert.Equal(t, map[int]int{9: 2, 14: 1}, activity)
	})

	t.Run("skips posts without timestamps", func(t *testing.T) {
		posts := []channel.Post{
			postAt(1, base),
			{ID: 2, Text: "undated"},
		}
		assert.Equal(t, map[int]int{9: 1}, a.HourlyActivity(posts))
	})
}

func TestPeakHours(t *testing.T) {
	a := NewTemporalAnalyzer(nil)

	t.Run("orders by count descending", func(t *testing.T) {
		activity := map[int]int{8: 3, 12: 10, 20: 7, 3: 1}
		assert.Equal(t, []int{12, 20, 8}, a.PeakHours(activity, 3))
	})

	t.Run("ties break toward the earlier hour", func(t *testing.T) {
		activity := map[int]int{22: 5, 7: 5, 15: 5}
		assert.Equal(t, []int{7, 15}, a.PeakHours(activity, 2))
	})

	t.Run("empty activity", func(t *testing.T) {
		assert.Empty(t, a.PeakHours(map[int]int{}, 3))
	})
}

func TestCorrelate(t *testing.T) {
	a := NewTemporalAnalyzer(nil)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("mirrored schedules correlate strongly", func(t *testing.T) {
		var posts1, posts2 []channel.Post
		// Both channels post at 08:00, 12:00 and 18:00; channel 2 trails
		// by five minutes.
		for i, hour := range []int{0, 4, 10} {
			ts := base.Add(time.Duration(hour) * time.Hour)
			posts1 = append(posts1, postAt(int64(i+1), ts))
			posts2 = append(posts2, postAt(int64(i+100), ts.Add(5*time.Minute)))
		}

		corr := a.Correlate(posts1, posts2)
		assert.Greater(t, corr.HourlyCorrelation, 0.8)
		assert.Less(t, corr.CorrelationPValue, 0.05)
		assert.Equal(t, 3, corr.SynchronizedPosts)
		require.Len(t, corr.SyncDetails, 3)
		for _, pair := range corr.SyncDetails {
			assert.InDelta(t, 5.0, pair.TimeDiffMinutes, 1e-9)
		}
		assert.Equal(t, []int{8, 12, 18}, corr.ActivityPatterns.Channel1PeakHours)
	})

	t.Run("sync details sorted by time difference", func(t *testing.T) {
		posts1 := []channel.Post{postAt(1, base)}
		posts2 := []channel.Post{
			postAt(10, base.Add(20*time.Minute)),
			postAt(11, base.Add(2*time.Minute)),
			postAt(12, base.Add(9*time.Minute)),
		}
		corr := a.Correlate(posts1, posts2)
		require.Len(t, corr.SyncDetails, 3)
		diffs := []float64{
			corr.SyncDetails[0].TimeDiffMinutes,
			corr.SyncDetails[1].TimeDiffMinutes,
			corr.SyncDetails[2].TimeDiffMinutes,
		}
		assert.Equal(t, []float64{2, 9, 20}, diffs)
	})

	t.Run("no timestamps means undefined correlation", func(t *testing.T) {
		posts1 := []channel.Post{{ID: 1, Text: "a"}}
		posts2 := []channel.Post{{ID: 2, Text: "b"}}
		corr := a.Correlate(posts1, posts2)
		assert.Zero(t, corr.HourlyCorrelation)
		assert.Equal(t, 1.0, corr.CorrelationPValue)
	})

	t.Run("posts outside the window are not synchronized", func(t *testing.T) {
		posts1 := []channel.Post{postAt(1, base)}
		posts2 := []channel.Post{postAt(2, base.Add(45*time.Minute))}
		corr := a.Correlate(posts1, posts2)
		assert.Zero(t, corr.SynchronizedPosts)
	})
}

func TestAnalyzePostingSequence(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	t.Run("channel one leading majority", func(t *testing.T) {
		posts1 := []channel.Post{
			postAt(1, base),
			postAt(2, base.Add(3*time.Hour)),
			postAt(3, base.Add(6*time.Hour)),
		}
		posts2 := []channel.Post{
			postAt(10, base.Add(15*time.Minute)),
			postAt(11, base.Add(3*time.Hour+10*time.Minute)),
			postAt(12, base.Add(6*time.Hour+20*time.Minute)),
		}

		seq := analyzePostingSequence(posts1, posts2)
		assert.Equal(t, 3, seq.TotalPairs)
		assert.Equal(t, 3, seq.Channel1LeadsCount)
		assert.Equal(t, "channel1", seq.DominantLeader)
		assert.InDelta(t, 15.0, seq.AverageLeadTimeMinutes, 1e-9)
	})

	t.Run("ties favour channel two", func(t *testing.T) {
		posts1 := []channel.Post{
			postAt(1, base),
			postAt(2, base.Add(3*time.Hour)),
		}
		posts2 := []channel.Post{
			postAt(10, base.Add(10*time.Minute)),
			postAt(11, base.Add(3*time.Hour-10*time.Minute)),
		}

		seq := analyzePostingSequence(posts1, posts2)
		assert.Equal(t, 2, seq.TotalPairs)
		assert.Equal(t, 1, seq.Channel1LeadsCount)
		assert.Equal(t, "channel2", seq.DominantLeader)
	})

	t.Run("no pairs inside the window", func(t *testing.T) {
		posts1 := []channel.Post{postAt(1, base)}
		posts2 := []channel.Post{postAt(2, base.Add(5*time.Hour))}
		seq := analyzePostingSequence(posts1, posts2)
		assert.Zero(t, seq.TotalPairs)
		assert.Empty(t, seq.DominantLeader)
	})
}
