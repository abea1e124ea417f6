// internal/service/engine/orchestrator_test.go

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanscope/internal/domain/channel"
)

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(
		newTestContentAnalyzer(newFakeEmbedder()),
		NewTemporalAnalyzer(nil),
		NewNetworkAnalyzer(nil),
		NewPool(DefaultPoolSize),
		nil,
	)
}

func analysisFixture() (int64, []channel.Related, []channel.Post) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	posts := []channel.Post{
		{ID: 1, ChannelID: 1, Text: "Government approves new infrastructure budget", PublishedAt: base},
		{ID: 2, ChannelID: 1, Text: "Government approves new infrastructure budget", PublishedAt: base.Add(20 * time.Minute)},
		{ID: 3, ChannelID: 1, Text: "Storm warning issued for the coast", PublishedAt: base.Add(3 * time.Hour)},
		{ID: 4, ChannelID: 1, Text: "Parliament debates the energy bill", PublishedAt: base.Add(6 * time.Hour)},
	}

	related := []channel.Related{
		{
			Channel: channel.Channel{ID: 2, Name: "mirror-channel"},
			Posts: []channel.Post{
				{ID: 10, ChannelID: 2, Text: "Government approves new infrastructure budget", PublishedAt: base.Add(5 * time.Minute)},
				{ID: 11, ChannelID: 2, Text: "Storm warning issued for the coast", PublishedAt: base.Add(3*time.Hour + 5*time.Minute)},
			},
			Connection: &channel.Connection{SourceID: 1, TargetID: 2, Strength: 0.9, ConnectionType: "content_similarity"},
		},
		{
			Channel:    channel.Channel{ID: 3, Name: "weak-neighbor"},
			Connection: &channel.Connection{SourceID: 1, TargetID: 3, Strength: 0.3, ConnectionType: "forwarding"},
		},
	}

	return 1, related, posts
}

func TestOrchestratorAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("produces a full report", func(t *testing.T) {
		o := newTestOrchestrator()
		channelID, related, posts := analysisFixture()

		report, err := o.Analyze(ctx, channelID, related, posts)
		require.NoError(t, err)
		require.NotNil(t, report)

		assert.Equal(t, int64(1), report.ChannelID)
		assert.False(t, report.AnalysisTimestamp.IsZero())

		// Content: posts 1 and 2 are verbatim duplicates.
		assert.Equal(t, 1, report.Content.DuplicateAnalysis.TotalDuplicates)
		assert.InDelta(t, 0.25, report.Content.DuplicateAnalysis.DuplicateRate, 1e-9)
		require.Len(t, report.Content.SimilarityAnalysis, 1)
		assert.Equal(t, int64(2), report.Content.SimilarityAnalysis[0].ChannelID)
		assert.Greater(t, report.Content.SimilarityAnalysis[0].MaxSimilarity, 0.9)

		// Temporal: only the related channel with posts is correlated.
		require.Len(t, report.Temporal.Correlations, 1)
		assert.Equal(t, int64(2), report.Temporal.Correlations[0].RelatedChannel.ID)
		assert.Greater(t, report.Temporal.Correlations[0].HourlyCorrelation, 0.6)
		assert.Equal(t, 4, report.Temporal.PostingPatterns.TotalPosts)

		// Network: star over both connections.
		assert.Equal(t, 2, report.Network.Metrics.Degree)
		assert.Equal(t, 1, report.Network.Metrics.StrongConnections)
		assert.Equal(t, 3, report.Network.GraphStats.NodesCount)
		assert.True(t, report.Network.GraphStats.IsConnected)

		// Summary fuses the branches.
		assert.Equal(t, 2, report.Summary.TotalConnections)
		assert.NotEmpty(t, report.Summary.KeyInsights)
		assert.Greater(t, report.Summary.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, report.Summary.ConfidenceScore, 1.0)
	})

	t.Run("empty inputs produce an empty report", func(t *testing.T) {
		o := newTestOrchestrator()
		report, err := o.Analyze(ctx, 7, nil, nil)
		require.NoError(t, err)

		assert.Zero(t, report.Content.DuplicateAnalysis.TotalDuplicates)
		assert.Empty(t, report.Temporal.Correlations)
		assert.Zero(t, report.Network.Metrics.Degree)
		assert.NotNil(t, report.Network.Metrics.Neighbors)
		assert.Zero(t, report.Summary.ConfidenceScore)
		assert.Empty(t, report.Summary.KeyInsights)
	})

	t.Run("related channels without connections leave the network empty", func(t *testing.T) {
		o := newTestOrchestrator()
		related := []channel.Related{
			{Channel: channel.Channel{ID: 2, Name: "unlinked"}, Posts: []channel.Post{{ID: 10, Text: "hello world"}}},
		}

		report, err := o.Analyze(ctx, 1, related, []channel.Post{{ID: 1, Text: "hello world"}})
		require.NoError(t, err)
		assert.Zero(t, report.Network.GraphStats.NodesCount)
		assert.Len(t, report.Content.SimilarityAnalysis, 1)
	})

	t.Run("topic count follows the content configuration", func(t *testing.T) {
		cfg := DefaultContentConfig()
		cfg.TopicCount = 2
		o := NewOrchestrator(
			NewContentAnalyzer(cfg, newFakeEmbedder(), nil),
			NewTemporalAnalyzer(nil),
			NewNetworkAnalyzer(nil),
			nil,
			nil,
		)
		channelID, related, posts := analysisFixture()

		report, err := o.Analyze(ctx, channelID, related, posts)
		require.NoError(t, err)
		assert.Len(t, report.Content.TopicAnalysis.Topics, 2)
	})

	t.Run("a failing branch does not take down the others", func(t *testing.T) {
		// A missing content analyzer makes the content branch panic;
		// temporal and network results must still be produced.
		o := NewOrchestrator(nil, NewTemporalAnalyzer(nil), NewNetworkAnalyzer(nil), nil, nil)
		channelID, related, posts := analysisFixture()

		report, err := o.Analyze(context.Background(), channelID, related, posts)
		require.NoError(t, err)

		assert.Zero(t, report.Content.DuplicateAnalysis.TotalDuplicates)
		assert.Empty(t, report.Content.SimilarityAnalysis)
		require.Len(t, report.Temporal.Correlations, 1)
		assert.Equal(t, 2, report.Network.Metrics.Degree)
	})

	t.Run("cancelled context skips pooled work without failing", func(t *testing.T) {
		o := newTestOrchestrator()
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		channelID, related, posts := analysisFixture()
		report, err := o.Analyze(cancelled, channelID, related, posts)
		require.NoError(t, err)
		assert.Zero(t, report.Content.DuplicateAnalysis.TotalDuplicates)
	})
}
