// internal/service/engine/content_test.go

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanscope/internal/domain/analysis"
	"chanscope/internal/domain/channel"
)

// fakeEmbedder maps each distinct token to its own dimension, so equal
// texts embed identically and disjoint texts embed orthogonally.
type fakeEmbedder struct {
	index map[string]int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{index: make(map[string]int)}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, 256)
	for _, tok := range tokenize(NormalizeText(text)) {
		i, ok := f.index[tok]
		if !ok {
			i = len(f.index)
			f.index[tok] = i
		}
		vec[i]++
	}
	return vec, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("embedding service unavailable")
}

func newTestContentAnalyzer(embedder analysis.Embedder) *ContentAnalyzer {
	return NewContentAnalyzer(DefaultContentConfig(), embedder, nil)
}

func TestSimilarity(t *testing.T) {
	ctx := context.Background()

	t.Run("identical text scores one", func(t *testing.T) {
		a := newTestContentAnalyzer(newFakeEmbedder())
		score := a.Similarity(ctx, "breaking news about the election", "breaking news about the election")
		assert.InDelta(t, 1.0, score.Overall, 1e-9)
		assert.InDelta(t, 1.0, score.TFIDF, 1e-9)
		assert.InDelta(t, 1.0, score.Semantic, 1e-9)
		assert.InDelta(t, 1.0, score.Lexical, 1e-9)
	})

	t.Run("is symmetric", func(t *testing.T) {
		a := newTestContentAnalyzer(newFakeEmbedder())
		s1 := a.Similarity(ctx, "markets rallied on tuesday", "markets fell on monday")
		s2 := a.Similarity(ctx, "markets fell on monday", "markets rallied on tuesday")
		assert.InDelta(t, s1.Overall, s2.Overall, 1e-9)
	})

	t.Run("disjoint vocabularies score zero", func(t *testing.T) {
		a := newTestContentAnalyzer(newFakeEmbedder())
		score := a.Similarity(ctx, "alpha bravo charlie", "delta echo foxtrot")
		assert.InDelta(t, 0.0, score.Overall, 1e-9)
	})

	t.Run("empty text scores zero", func(t *testing.T) {
		a := newTestContentAnalyzer(newFakeEmbedder())
		score := a.Similarity(ctx, "", "some real text")
		assert.Zero(t, score.Overall)
		assert.Zero(t, score.TFIDF)
	})

	t.Run("embedder failure degrades to zero semantic score", func(t *testing.T) {
		a := newTestContentAnalyzer(failingEmbedder{})
		score := a.Similarity(ctx, "same words here", "same words here")
		assert.Zero(t, score.Semantic)
		assert.InDelta(t, 0.6, score.Overall, 1e-9)
	})

	t.Run("no embedder means zero semantic score", func(t *testing.T) {
		a := newTestContentAnalyzer(nil)
		score := a.Similarity(ctx, "same words here", "same words here")
		assert.Zero(t, score.Semantic)
		assert.InDelta(t, 0.6, score.Overall, 1e-9)
	})
}

func TestDetectDuplicates(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("finds reposted content across url variants", func(t *testing.T) {
		a := newTestContentAnalyzer(newFakeEmbedder())
		posts := []channel.Post{
			{ID: 1, Text: "Government announces new tax policy today https://a.example/1", PublishedAt: base},
			{ID: 2, Text: "Government announces new tax policy today https://b.example/2", PublishedAt: base.Add(25 * time.Minute)},
			{ID: 3, Text: "Local team wins championship final", PublishedAt: base.Add(time.Hour)},
		}

		pairs := a.DetectDuplicates(ctx, posts)
		require.Len(t, pairs, 1)
		assert.Equal(t, int64(1), pairs[0].Post1ID)
		assert.Equal(t, int64(2), pairs[0].Post2ID)
		assert.Equal(t, analysis.DuplicateExact, pairs[0].DuplicateType)
		assert.InDelta(t, 25.0, pairs[0].TimeDiffMinutes, 1e-9)
	})

	t.Run("no duplicates in distinct posts", func(t *testing.T) {
		a := newTestContentAnalyzer(newFakeEmbedder())
		posts := []channel.Post{
			{ID: 1, Text: "weather forecast sunny skies", PublishedAt: base},
			{ID: 2, Text: "stock market closes higher", PublishedAt: base},
		}
		assert.Empty(t, a.DetectDuplicates(ctx, posts))
	})

	t.Run("empty input", func(t *testing.T) {
		a := newTestContentAnalyzer(newFakeEmbedder())
		assert.Empty(t, a.DetectDuplicates(ctx, nil))
	})
}

func TestClassifyDuplicate(t *testing.T) {
	cases := []struct {
		name string
		sim  analysis.SimilarityScore
		want analysis.DuplicateType
	}{
		{"near identical is exact", analysis.SimilarityScore{Overall: 0.96}, analysis.DuplicateExact},
		{"high semantic is semantic", analysis.SimilarityScore{Overall: 0.9, Semantic: 0.85}, analysis.DuplicateSemantic},
		{"high tfidf is textual", analysis.SimilarityScore{Overall: 0.9, Semantic: 0.5, TFIDF: 0.85}, analysis.DuplicateTextual},
		{"otherwise partial", analysis.SimilarityScore{Overall: 0.88, Semantic: 0.5, TFIDF: 0.5}, analysis.DuplicatePartial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyDuplicate(tc.sim))
		})
	}
}

func TestLexicalSimilarity(t *testing.T) {
	t.Run("jaccard overlap", func(t *testing.T) {
		// {a,b,c} vs {b,c,d}: 2 shared of 4 total.
		assert.InDelta(t, 0.5, lexicalSimilarity("a b c", "b c d"), 1e-9)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Zero(t, lexicalSimilarity("", ""))
	})
}
