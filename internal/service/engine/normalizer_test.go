// internal/service/engine/normalizer_test.go

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	t.Run("strips urls mentions and hashtags", func(t *testing.T) {
		got := NormalizeText("Check https://example.com/page now @someone #breaking")
		assert.Equal(t, "check now", got)
	})

	t.Run("lowercases and collapses whitespace", func(t *testing.T) {
		got := NormalizeText("  Hello    WORLD  ")
		assert.Equal(t, "hello world", got)
	})

	t.Run("replaces punctuation with spaces", func(t *testing.T) {
		got := NormalizeText("one,two three!")
		assert.Equal(t, []string{"one", "two", "three"}, tokenize(got))
	})

	t.Run("keeps unicode letters and digits", func(t *testing.T) {
		got := NormalizeText("Новости дня: 42 события")
		assert.Equal(t, []string{"новости", "дня", "42", "события"}, tokenize(got))
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		assert.Equal(t, "", NormalizeText(""))
		assert.Equal(t, "", NormalizeText("   "))
	})
}

func TestTokenize(t *testing.T) {
	t.Run("splits on whitespace", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b", "c"}, tokenize("a b  c"))
	})

	t.Run("empty text yields no tokens", func(t *testing.T) {
		assert.Empty(t, tokenize(""))
	})
}
