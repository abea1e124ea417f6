// internal/service/engine/topics_test.go

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTopics(t *testing.T) {
	a := newTestContentAnalyzer(nil)

	t.Run("too few documents yields empty model", func(t *testing.T) {
		model := a.ExtractTopics([]string{"one text", "another text"}, 5)
		assert.Empty(t, model.Topics)
		assert.Empty(t, model.TopicDistribution)
	})

	t.Run("empty texts are filtered before the size check", func(t *testing.T) {
		model := a.ExtractTopics([]string{"real text", "", "", ""}, 2)
		assert.Empty(t, model.Topics)
	})

	t.Run("separates distinct themes", func(t *testing.T) {
		texts := []string{
			"elections vote parliament government coalition",
			"vote elections government parliament minister",
			"parliament coalition vote government elections",
			"football match goal score championship league",
			"goal score football league championship match",
			"championship football match score league goal",
		}

		model := a.ExtractTopics(texts, 2)
		require.Len(t, model.Topics, 2)
		require.Len(t, model.TopicDistribution, len(texts))

		for _, row := range model.TopicDistribution {
			assert.Len(t, row, 2)
			for _, v := range row {
				assert.GreaterOrEqual(t, v, 0.0)
			}
		}
		for _, topic := range model.Topics {
			assert.NotEmpty(t, topic.Keywords)
			assert.LessOrEqual(t, len(topic.Keywords), 10)
			assert.Greater(t, topic.Weight, 0.0)
		}
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		texts := []string{
			"alpha bravo charlie delta",
			"bravo charlie delta echo",
			"charlie delta echo foxtrot",
		}
		first := a.ExtractTopics(texts, 2)
		second := a.ExtractTopics(texts, 2)
		assert.Equal(t, first, second)
	})

	t.Run("zero topic count yields empty model", func(t *testing.T) {
		model := a.ExtractTopics([]string{"a", "b", "c"}, 0)
		assert.Empty(t, model.Topics)
	})
}
