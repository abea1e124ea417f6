// internal/service/engine/normalizer.go

package engine

import (
	"regexp"
	"strings"
)

var (
	urlPattern        = regexp.MustCompile(`https?://[^\s]+`)
	mentionPattern    = regexp.MustCompile(`@\w+`)
	hashtagPattern    = regexp.MustCompile(`#\w+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	punctPattern      = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// NormalizeText cleans raw post text for comparison: URLs, mentions and
// hashtags are removed, punctuation becomes whitespace, runs of
// whitespace collapse to a single space, and the result is lower-cased
// and trimmed. Empty input yields empty output.
func NormalizeText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = punctPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(strings.ToLower(text))
}

// tokenize splits normalized text on whitespace.
func tokenize(text string) []string {
	return strings.Fields(text)
}

// tokenSet builds a word set from normalized text.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range tokenize(text) {
		set[w] = true
	}
	return set
}
