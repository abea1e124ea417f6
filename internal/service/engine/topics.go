// internal/service/engine/topics.go

package engine

import (
	"math"
	"math/rand"
	"sort"

	"chanscope/internal/domain/analysis"
)

const (
	nmfIterations = 100
	nmfSeed       = 42
	nmfEpsilon    = 1e-9
	topicKeywords = 10
)

// ExtractTopics fits a latent topic model over the corpus and returns
// the topics with their top keywords plus a per-document topic
// distribution. Corpora smaller than nTopics yield an empty result.
func (a *ContentAnalyzer) ExtractTopics(texts []string, nTopics int) analysis.TopicModel {
	empty := analysis.TopicModel{Topics: []analysis.Topic{}, TopicDistribution: [][]float64{}}
	if nTopics <= 0 {
		return empty
	}

	var docs [][]string
	for _, text := range texts {
		if text == "" {
			continue
		}
		docs = append(docs, tokenize(NormalizeText(text)))
	}
	if len(docs) < nTopics {
		return empty
	}

	vocab, terms := buildVocabulary(docs)
	if len(vocab) == 0 {
		return empty
	}

	matrix := tfidfMatrix(docs, vocab)
	w, h := factorize(matrix, nTopics)

	topics := make([]analysis.Topic, 0, nTopics)
	for topicIdx := 0; topicIdx < nTopics; topicIdx++ {
		row := h[topicIdx]

		order := make([]int, len(row))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return row[order[i]] > row[order[j]]
		})

		total := 0.0
		for _, v := range row {
			total += v
		}

		limit := topicKeywords
		if limit > len(order) {
			limit = len(order)
		}
		keywords := make([]string, 0, limit)
		for _, idx := range order[:limit] {
			keywords = append(keywords, terms[idx])
		}

		topics = append(topics, analysis.Topic{
			ID:       topicIdx,
			Keywords: keywords,
			Weight:   total,
		})
	}

	return analysis.TopicModel{Topics: topics, TopicDistribution: w}
}

// buildVocabulary assigns a column index to every distinct term and
// returns the index together with the reverse lookup.
func buildVocabulary(docs [][]string) (map[string]int, []string) {
	vocab := make(map[string]int)
	var terms []string
	for _, doc := range docs {
		for _, t := range doc {
			if _, ok := vocab[t]; !ok {
				vocab[t] = len(terms)
				terms = append(terms, t)
			}
		}
	}
	return vocab, terms
}

// tfidfMatrix builds the document-term TF-IDF matrix with smoothed IDF
// and L2-normalised rows.
func tfidfMatrix(docs [][]string, vocab map[string]int) [][]float64 {
	n := len(docs)
	df := make([]int, len(vocab))

	rows := make([][]float64, n)
	for d, doc := range docs {
		row := make([]float64, len(vocab))
		for _, t := range doc {
			row[vocab[t]]++
		}
		for idx, count := range row {
			if count > 0 {
				df[idx]++
			}
		}
		rows[d] = row
	}

	for _, row := range rows {
		var norm float64
		for idx := range row {
			if row[idx] == 0 {
				continue
			}
			idf := math.Log(float64(1+n)/float64(1+df[idx])) + 1.0
			row[idx] *= idf
			norm += row[idx] * row[idx]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for idx := range row {
				row[idx] /= norm
			}
		}
	}

	return rows
}

// factorize runs non-negative matrix factorization V ≈ W·H via
// multiplicative updates with a fixed seed, returning the document-topic
// weights W and the topic-term weights H.
func factorize(v [][]float64, k int) (w, h [][]float64) {
	nDocs := len(v)
	nTerms := len(v[0])
	rng := rand.New(rand.NewSource(nmfSeed))

	w = randomMatrix(rng, nDocs, k)
	h = randomMatrix(rng, k, nTerms)

	for iter := 0; iter < nmfIterations; iter++ {
		// H update: H := H ∘ (WᵀV) / (WᵀWH)
		wtv := multiply(transpose(w), v)
		wtwh := multiply(multiply(transpose(w), w), h)
		for i := range h {
			for j := range h[i] {
				h[i][j] *= wtv[i][j] / (wtwh[i][j] + nmfEpsilon)
			}
		}

		// W update: W := W ∘ (VHᵀ) / (WHHᵀ)
		vht := multiply(v, transpose(h))
		whht := multiply(w, multiply(h, transpose(h)))
		for i := range w {
			for j := range w[i] {
				w[i][j] *= vht[i][j] / (whht[i][j] + nmfEpsilon)
			}
		}
	}

	return w, h
}

func randomMatrix(rng *rand.Rand, rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = rng.Float64() + nmfEpsilon
		}
	}
	return m
}

func transpose(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return nil
	}
	t := make([][]float64, len(m[0]))
	for i := range t {
		t[i] = make([]float64, len(m))
		for j := range m {
			t[i][j] = m[j][i]
		}
	}
	return t
}

func multiply(a, b [][]float64) [][]float64 {
	rows, inner, cols := len(a), len(b), len(b[0])
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for k := 0; k < inner; k++ {
			if a[i][k] == 0 {
				continue
			}
			aik := a[i][k]
			for j := 0; j < cols; j++ {
				out[i][j] += aik * b[k][j]
			}
		}
	}
	return out
}
