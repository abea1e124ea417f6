// internal/service/engine/temporal.go

package engine

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"chanscope/internal/domain/analysis"
	"chanscope/internal/domain/channel"
)

const (
	syncWindowMinutes   = 30.0
	leadLagWindowMin    = 120.0
	maxSyncDetails      = 10
	defaultPeakHourTopK = 3
)

// TemporalAnalyzer detects temporal coupling between channels' posting
// behaviour.
type TemporalAnalyzer struct {
	logger *zap.Logger
}

// NewTemporalAnalyzer creates a temporal analyzer.
func NewTemporalAnalyzer(logger *zap.Logger) *TemporalAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemporalAnalyzer{logger: logger}
}

// HourlyActivity buckets posts by their hour of day. Posts without a
// timestamp are skipped.
func (t *TemporalAnalyzer) HourlyActivity(posts []channel.Post) map[int]int {
	activity := make(map[int]int)
	for _, p := range posts {
		if !p.HasTimestamp() {
			continue
		}
		activity[p.PublishedAt.Hour()]++
	}
	return activity
}

// PeakHours returns the topK most active hours, ordered by descending
// count; ties break toward the earlier hour so the result is
// deterministic.
func (t *TemporalAnalyzer) PeakHours(activity map[int]int, topK int) []int {
	hours := make([]int, 0, len(activity))
	for h := range activity {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if activity[hours[i]] != activity[hours[j]] {
			return activity[hours[i]] > activity[hours[j]]
		}
		return hours[i] < hours[j]
	})

	if topK < len(hours) {
		hours = hours[:topK]
	}
	return hours
}

// Correlate computes the full temporal relationship between two
// channels: hourly Pearson correlation with its two-sided p-value,
// synchronized postings, and lead/lag sequencing.
func (t *TemporalAnalyzer) Correlate(posts1, posts2 []channel.Post) analysis.Correlation {
	activity1 := t.HourlyActivity(posts1)
	activity2 := t.HourlyActivity(posts2)

	r, p := hourlyPearson(activity1, activity2)
	syncPairs := findSynchronizedPosts(posts1, posts2)

	details := syncPairs
	if len(details) > maxSyncDetails {
		details = details[:maxSyncDetails]
	}

	return analysis.Correlation{
		HourlyCorrelation: r,
		CorrelationPValue: p,
		SynchronizedPosts: len(syncPairs),
		SyncDetails:       details,
		SequenceAnalysis:  analyzePostingSequence(posts1, posts2),
		ActivityPatterns: analysis.ActivityPatterns{
			Channel1PeakHours: t.PeakHours(activity1, defaultPeakHourTopK),
			Channel2PeakHours: t.PeakHours(activity2, defaultPeakHourTopK),
		},
	}
}

// hourlyPearson correlates the two 24-bucket activity vectors. An
// undefined correlation (zero variance on either side) reports r=0 and
// p=1.
func hourlyPearson(activity1, activity2 map[int]int) (r, p float64) {
	x := make([]float64, 24)
	y := make([]float64, 24)
	for h := 0; h < 24; h++ {
		x[h] = float64(activity1[h])
		y[h] = float64(activity2[h])
	}

	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, 1
	}

	n := float64(len(x))
	if math.Abs(r) >= 1 {
		return r, 0
	}

	// Two-sided p-value from the t statistic of r with n-2 degrees of
	// freedom.
	t := r * math.Sqrt((n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}
	p = 2 * (1 - dist.CDF(math.Abs(t)))
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return r, p
}

// findSynchronizedPosts returns every cross pair published within the
// sync window, sorted by ascending time difference.
func findSynchronizedPosts(posts1, posts2 []channel.Post) []analysis.SyncPair {
	var pairs []analysis.SyncPair
	for _, p1 := range posts1 {
		for _, p2 := range posts2 {
			diff := absMinutesBetween(p1, p2)
			if diff > syncWindowMinutes {
				continue
			}
			pairs = append(pairs, analysis.SyncPair{
				Post1ID:         p1.ID,
				Post2ID:         p2.ID,
				TimeDiffMinutes: diff,
				Post1Date:       p1.PublishedAt,
				Post2Date:       p2.PublishedAt,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].TimeDiffMinutes < pairs[j].TimeDiffMinutes
	})
	return pairs
}

// analyzePostingSequence pairs each channel-1 post with its nearest
// channel-2 post inside the lead/lag window and aggregates who leads.
// The signed difference is post1_time − post2_time, so a negative value
// means channel 1 published first.
func analyzePostingSequence(posts1, posts2 []channel.Post) analysis.SequenceAnalysis {
	type leadEntry struct {
		diff   float64
		leads1 bool
	}

	var entries []leadEntry
	for _, p1 := range posts1 {
		minAbs := math.Inf(1)
		signed := 0.0
		found := false

		for _, p2 := range posts2 {
			diff := signedMinutesBetween(p1, p2)
			abs := math.Abs(diff)
			if abs < minAbs && abs <= leadLagWindowMin {
				minAbs = abs
				signed = diff
				found = true
			}
		}

		if found {
			entries = append(entries, leadEntry{diff: signed, leads1: signed < 0})
		}
	}

	if len(entries) == 0 {
		return analysis.SequenceAnalysis{TotalPairs: 0}
	}

	leads1 := 0
	sumAbs := 0.0
	for _, e := range entries {
		if e.leads1 {
			leads1++
		}
		sumAbs += math.Abs(e.diff)
	}

	// Strict majority required for channel 1; ties favour channel 2.
	leader := "channel2"
	if leads1*2 > len(entries) {
		leader = "channel1"
	}

	return analysis.SequenceAnalysis{
		TotalPairs:             len(entries),
		Channel1LeadsCount:     leads1,
		Channel2LeadsCount:     len(entries) - leads1,
		AverageLeadTimeMinutes: sumAbs / float64(len(entries)),
		DominantLeader:         leader,
	}
}

// signedMinutesBetween is post1 − post2 in minutes, zero when either
// timestamp is missing.
func signedMinutesBetween(p1, p2 channel.Post) float64 {
	if !p1.HasTimestamp() || !p2.HasTimestamp() {
		return 0
	}
	return p1.PublishedAt.Sub(p2.PublishedAt).Minutes()
}
