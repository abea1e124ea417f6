// internal/service/engine/content.go

package engine

import (
	"context"
	"math"

	"go.uber.org/zap"

	"chanscope/internal/domain/analysis"
	"chanscope/internal/domain/channel"
)

// PairScorer computes the TF-IDF component of a text pair's similarity.
// The default implementation derives document frequencies from exactly
// the two inputs; a corpus-aware scorer can be swapped in without
// touching call sites.
type PairScorer interface {
	Score(text1, text2 string) float64
}

// ContentConfig configures content analysis.
type ContentConfig struct {
	DuplicateThreshold      float64
	HighSimilarityThreshold float64
	TopicCount              int
}

// DefaultContentConfig returns the thresholds the engine ships with.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		DuplicateThreshold:      0.85,
		HighSimilarityThreshold: 0.7,
		TopicCount:              defaultTopicCount,
	}
}

// ContentAnalyzer detects duplicated content and extracts topics across
// channel posts.
type ContentAnalyzer struct {
	config   ContentConfig
	embedder analysis.Embedder
	scorer   PairScorer
	logger   *zap.Logger
}

// NewContentAnalyzer creates a content analyzer. embedder may be nil;
// the semantic similarity component then degrades to zero.
func NewContentAnalyzer(config ContentConfig, embedder analysis.Embedder, logger *zap.Logger) *ContentAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TopicCount <= 0 {
		config.TopicCount = defaultTopicCount
	}
	return &ContentAnalyzer{
		config:   config,
		embedder: embedder,
		scorer:   pairwiseTFIDF{},
		logger:   logger,
	}
}

// Similarity computes the similarity metrics for a pair of texts. The
// overall score weighs the components 0.4 TF-IDF, 0.4 semantic and
// 0.2 lexical.
func (a *ContentAnalyzer) Similarity(ctx context.Context, text1, text2 string) analysis.SimilarityScore {
	if text1 == "" || text2 == "" {
		return analysis.SimilarityScore{}
	}

	clean1 := NormalizeText(text1)
	clean2 := NormalizeText(text2)

	tfidf := a.scorer.Score(clean1, clean2)
	semantic := a.semanticSimilarity(ctx, clean1, clean2)
	lexical := lexicalSimilarity(clean1, clean2)

	return analysis.SimilarityScore{
		TFIDF:    tfidf,
		Semantic: semantic,
		Lexical:  lexical,
		Overall:  0.4*tfidf + 0.4*semantic + 0.2*lexical,
	}
}

// DetectDuplicates compares every unordered pair of posts and returns
// the pairs whose overall similarity exceeds the duplicate threshold.
func (a *ContentAnalyzer) DetectDuplicates(ctx context.Context, posts []channel.Post) []analysis.DuplicatePair {
	var duplicates []analysis.DuplicatePair

	for i := 0; i < len(posts); i++ {
		for j := i + 1; j < len(posts); j++ {
			sim := a.Similarity(ctx, posts[i].Text, posts[j].Text)
			if sim.Overall <= a.config.DuplicateThreshold {
				continue
			}

			duplicates = append(duplicates, analysis.DuplicatePair{
				Post1ID:         posts[i].ID,
				Post2ID:         posts[j].ID,
				Similarity:      sim,
				TimeDiffMinutes: absMinutesBetween(posts[i], posts[j]),
				DuplicateType:   classifyDuplicate(sim),
			})
		}
	}

	return duplicates
}

func classifyDuplicate(sim analysis.SimilarityScore) analysis.DuplicateType {
	switch {
	case sim.Overall > 0.95:
		return analysis.DuplicateExact
	case sim.Semantic > 0.8:
		return analysis.DuplicateSemantic
	case sim.TFIDF > 0.8:
		return analysis.DuplicateTextual
	default:
		return analysis.DuplicatePartial
	}
}

// absMinutesBetween returns the absolute publishing gap in minutes, or
// zero when either post has no timestamp.
func absMinutesBetween(p1, p2 channel.Post) float64 {
	if !p1.HasTimestamp() || !p2.HasTimestamp() {
		return 0
	}
	return math.Abs(p1.PublishedAt.Sub(p2.PublishedAt).Minutes())
}

func (a *ContentAnalyzer) semanticSimilarity(ctx context.Context, text1, text2 string) float64 {
	if a.embedder == nil {
		return 0
	}

	v1, err := a.embedder.Embed(ctx, text1)
	if err != nil {
		a.logger.Warn("embedding failed, semantic score degraded to zero", zap.Error(err))
		return 0
	}
	v2, err := a.embedder.Embed(ctx, text2)
	if err != nil {
		a.logger.Warn("embedding failed, semantic score degraded to zero", zap.Error(err))
		return 0
	}

	return cosine(v1, v2)
}

// lexicalSimilarity is the Jaccard index of the two word sets.
func lexicalSimilarity(text1, text2 string) float64 {
	set1 := tokenSet(text1)
	set2 := tokenSet(text2)

	if len(set1) == 0 || len(set2) == 0 {
		return 0
	}

	intersection := 0
	union := make(map[string]bool, len(set1)+len(set2))
	for w := range set1 {
		union[w] = true
		if set2[w] {
			intersection++
		}
	}
	for w := range set2 {
		union[w] = true
	}

	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

// pairwiseTFIDF builds a TF-IDF space from exactly the two documents
// being compared. Document frequency statistics deliberately come from
// the pair alone, not a corpus, to stay compatible with the existing
// duplicate thresholds.
type pairwiseTFIDF struct{}

func (pairwiseTFIDF) Score(text1, text2 string) float64 {
	tokens1 := tokenize(text1)
	tokens2 := tokenize(text2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0
	}

	vocab := make(map[string]int)
	for _, t := range tokens1 {
		if _, ok := vocab[t]; !ok {
			vocab[t] = len(vocab)
		}
	}
	for _, t := range tokens2 {
		if _, ok := vocab[t]; !ok {
			vocab[t] = len(vocab)
		}
	}

	tf1 := termCounts(tokens1, vocab)
	tf2 := termCounts(tokens2, vocab)

	// Smoothed IDF over the two-document collection.
	vec1 := make([]float64, len(vocab))
	vec2 := make([]float64, len(vocab))
	for _, idx := range vocab {
		df := 0
		if tf1[idx] > 0 {
			df++
		}
		if tf2[idx] > 0 {
			df++
		}
		idf := math.Log(3.0/(1.0+float64(df))) + 1.0
		vec1[idx] = tf1[idx] * idf
		vec2[idx] = tf2[idx] * idf
	}

	return cosine(vec1, vec2)
}

func termCounts(tokens []string, vocab map[string]int) []float64 {
	counts := make([]float64, len(vocab))
	for _, t := range tokens {
		counts[vocab[t]]++
	}
	return counts
}

// cosine returns the cosine similarity of two vectors, zero when either
// has no magnitude or lengths differ.
func cosine(v1, v2 []float64) float64 {
	if len(v1) != len(v2) || len(v1) == 0 {
		return 0
	}

	var dot, norm1, norm2 float64
	for i := range v1 {
		dot += v1[i] * v2[i]
		norm1 += v1[i] * v1[i]
		norm2 += v2[i] * v2[i]
	}

	if norm1 == 0 || norm2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
}
