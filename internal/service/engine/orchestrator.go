// internal/service/engine/orchestrator.go

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chanscope/internal/domain/analysis"
	"chanscope/internal/domain/channel"
)

const (
	maxDuplicateDetails        = 20
	maxPairwisePosts           = 50
	defaultTopicCount          = 10
	strongCorrelationThreshold = 0.6
	notableDuplicateRate       = 0.1
)

// Orchestrator runs the three analysis branches concurrently and fuses
// their outputs into a single report. A failing branch never takes the
// others down; its section of the report stays empty and the failure is
// logged.
type Orchestrator struct {
	content  *ContentAnalyzer
	temporal *TemporalAnalyzer
	network  *NetworkAnalyzer
	pool     *Pool
	logger   *zap.Logger
}

// NewOrchestrator assembles the engine from its analyzers. A nil pool
// gets the default size; a nil logger is replaced with a no-op one.
func NewOrchestrator(content *ContentAnalyzer, temporal *TemporalAnalyzer, network *NetworkAnalyzer, pool *Pool, logger *zap.Logger) *Orchestrator {
	if pool == nil {
		pool = NewPool(DefaultPoolSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		content:  content,
		temporal: temporal,
		network:  network,
		pool:     pool,
		logger:   logger,
	}
}

var _ analysis.Engine = (*Orchestrator)(nil)

// Analyze produces the full relationship report for one focal channel.
func (o *Orchestrator) Analyze(ctx context.Context, channelID int64, related []channel.Related, posts []channel.Post) (*analysis.Report, error) {
	report := &analysis.Report{
		ChannelID:         channelID,
		AnalysisTimestamp: time.Now().UTC(),
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		defer o.recoverBranch(channelID, "content")
		report.Content = o.contentBranch(ctx, channelID, related, posts)
	}()

	go func() {
		defer wg.Done()
		defer o.recoverBranch(channelID, "temporal")
		report.Temporal = o.temporalBranch(ctx, channelID, related, posts)
	}()

	go func() {
		defer wg.Done()
		defer o.recoverBranch(channelID, "network")
		report.Network = o.networkBranch(ctx, channelID, related)
	}()

	wg.Wait()

	report.Summary = o.summarize(report)

	o.logger.Info("channel analysis completed",
		zap.Int64("channel_id", channelID),
		zap.Int("related_channels", len(related)),
		zap.Int("posts", len(posts)),
		zap.Float64("confidence", report.Summary.ConfidenceScore))

	return report, nil
}

// recoverBranch turns a branch panic into a logged failure, leaving the
// branch's section of the report at its zero value.
func (o *Orchestrator) recoverBranch(channelID int64, branch string) {
	if r := recover(); r != nil {
		o.logger.Error("analysis branch failed",
			zap.Int64("channel_id", channelID),
			zap.String("branch", branch),
			zap.Any("panic", r))
	}
}

func (o *Orchestrator) contentBranch(ctx context.Context, channelID int64, related []channel.Related, posts []channel.Post) analysis.ContentResult {
	result := analysis.ContentResult{
		SimilarityAnalysis: []analysis.ChannelSimilarity{},
	}

	var duplicates []analysis.DuplicatePair
	if err := o.pool.Do(ctx, func() error {
		duplicates = o.content.DetectDuplicates(ctx, posts)
		return nil
	}); err != nil {
		o.logger.Warn("duplicate detection skipped",
			zap.Int64("channel_id", channelID), zap.Error(err))
	}

	result.DuplicateAnalysis = analysis.DuplicateAnalysis{
		TotalDuplicates: len(duplicates),
		Duplicates:      capPairs(duplicates, maxDuplicateDetails),
	}
	if len(posts) > 0 {
		result.DuplicateAnalysis.DuplicateRate = float64(len(duplicates)) / float64(len(posts))
	}

	for _, rel := range related {
		if len(rel.Posts) == 0 {
			continue
		}
		var sim analysis.ChannelSimilarity
		if err := o.pool.Do(ctx, func() error {
			sim = o.channelSimilarity(ctx, rel, posts)
			return nil
		}); err != nil {
			o.logger.Warn("channel similarity skipped",
				zap.Int64("channel_id", channelID),
				zap.Int64("related_id", rel.Channel.ID), zap.Error(err))
			continue
		}
		result.SimilarityAnalysis = append(result.SimilarityAnalysis, sim)
	}

	texts := make([]string, 0, len(posts))
	for _, p := range posts {
		texts = append(texts, p.Text)
	}
	if err := o.pool.Do(ctx, func() error {
		result.TopicAnalysis = o.content.ExtractTopics(texts, o.content.config.TopicCount)
		return nil
	}); err != nil {
		o.logger.Warn("topic extraction skipped",
			zap.Int64("channel_id", channelID), zap.Error(err))
		result.TopicAnalysis = analysis.TopicModel{
			Topics:            []analysis.Topic{},
			TopicDistribution: [][]float64{},
		}
	}

	return result
}

// channelSimilarity scores the focal channel's posts against one
// related channel's posts, capped on both sides to bound the pairwise
// work.
func (o *Orchestrator) channelSimilarity(ctx context.Context, rel channel.Related, posts []channel.Post) analysis.ChannelSimilarity {
	sim := analysis.ChannelSimilarity{
		ChannelID:   rel.Channel.ID,
		ChannelName: rel.Channel.Name,
	}

	own := capPosts(posts, maxPairwisePosts)
	theirs := capPosts(rel.Posts, maxPairwisePosts)

	var total float64
	var count int
	for _, p1 := range own {
		for _, p2 := range theirs {
			score := o.content.Similarity(ctx, p1.Text, p2.Text)
			total += score.Overall
			count++
			if score.Overall > sim.MaxSimilarity {
				sim.MaxSimilarity = score.Overall
			}
			if score.Overall > o.content.config.HighSimilarityThreshold {
				sim.HighSimilarityCount++
			}
		}
	}
	if count > 0 {
		sim.AverageSimilarity = total / float64(count)
	}

	return sim
}

func (o *Orchestrator) temporalBranch(ctx context.Context, channelID int64, related []channel.Related, posts []channel.Post) analysis.TemporalResult {
	result := analysis.TemporalResult{
		Correlations: []analysis.Correlation{},
	}

	activity := o.temporal.HourlyActivity(posts)
	result.PostingPatterns = analysis.PostingPatterns{
		HourlyDistribution:  activity,
		PeakHours:           o.temporal.PeakHours(activity, defaultPeakHourTopK),
		TotalPosts:          len(posts),
		AveragePostsPerHour: float64(len(posts)) / 24.0,
	}

	for _, rel := range related {
		if len(rel.Posts) == 0 {
			continue
		}
		var corr analysis.Correlation
		if err := o.pool.Do(ctx, func() error {
			corr = o.temporal.Correlate(posts, rel.Posts)
			return nil
		}); err != nil {
			o.logger.Warn("temporal correlation skipped",
				zap.Int64("channel_id", channelID),
				zap.Int64("related_id", rel.Channel.ID), zap.Error(err))
			continue
		}
		corr.RelatedChannel = analysis.RelatedRef{
			ID:   rel.Channel.ID,
			Name: rel.Channel.Name,
		}
		result.Correlations = append(result.Correlations, corr)
	}

	return result
}

func (o *Orchestrator) networkBranch(ctx context.Context, channelID int64, related []channel.Related) analysis.NetworkResult {
	result := analysis.NetworkResult{
		Metrics:     emptyCentralityReport(),
		Communities: analysis.CommunityReport{Communities: map[int]analysis.Community{}},
	}

	connections := make([]channel.Connection, 0, len(related))
	for _, rel := range related {
		if rel.Connection == nil {
			continue
		}
		conn := *rel.Connection
		if conn.SourceID == 0 {
			conn.SourceID = channelID
		}
		if conn.TargetID == 0 {
			conn.TargetID = rel.Channel.ID
		}
		connections = append(connections, conn)
	}
	if len(connections) == 0 {
		return result
	}

	if err := o.pool.Do(ctx, func() error {
		g := BuildGraph(connections)
		result.Metrics = o.network.NodeMetrics(g, channelID)
		result.Communities = o.network.DetectCommunities(g)
		result.GraphStats = analysis.GraphStats{
			NodesCount:  g.NodeCount(),
			EdgesCount:  g.EdgeCount(),
			Density:     g.Density(),
			IsConnected: g.IsConnected(),
		}
		return nil
	}); err != nil {
		o.logger.Warn("network analysis skipped",
			zap.Int64("channel_id", channelID), zap.Error(err))
	}

	return result
}

// summarize fuses the three branch results into the human-facing
// verdict.
func (o *Orchestrator) summarize(report *analysis.Report) analysis.RelationshipSummary {
	summary := analysis.RelationshipSummary{
		TotalConnections:  report.Network.Metrics.TotalConnections,
		StrongConnections: report.Network.Metrics.StrongConnections,
		ConnectionTypes:   report.Network.Metrics.ConnectionTypes,
		KeyInsights:       []string{},
	}
	if summary.ConnectionTypes == nil {
		summary.ConnectionTypes = map[string]int{}
	}

	dupRate := report.Content.DuplicateAnalysis.DuplicateRate
	if dupRate > notableDuplicateRate {
		summary.KeyInsights = append(summary.KeyInsights,
			fmt.Sprintf("High content duplication rate: %.1f%%", dupRate*100))
	}

	var strongCorrelations []float64
	for _, corr := range report.Temporal.Correlations {
		if corr.HourlyCorrelation > strongCorrelationThreshold {
			strongCorrelations = append(strongCorrelations, corr.HourlyCorrelation)
		}
	}
	if len(strongCorrelations) > 0 {
		summary.KeyInsights = append(summary.KeyInsights,
			fmt.Sprintf("Strong temporal correlation with %d channels", len(strongCorrelations)))
	}

	var factors []float64
	if dupRate > 0 {
		factors = append(factors, minFloat(dupRate*2, 1.0))
	}
	if len(strongCorrelations) > 0 {
		factors = append(factors, mean(strongCorrelations))
	}
	if pr := report.Network.Metrics.PageRank; pr > 0 {
		factors = append(factors, minFloat(pr*10, 1.0))
	}
	if len(factors) > 0 {
		summary.ConfidenceScore = mean(factors)
	}

	return summary
}

func capPairs(pairs []analysis.DuplicatePair, limit int) []analysis.DuplicatePair {
	if pairs == nil {
		return []analysis.DuplicatePair{}
	}
	if len(pairs) > limit {
		return pairs[:limit]
	}
	return pairs
}

func capPosts(posts []channel.Post, limit int) []channel.Post {
	if len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
