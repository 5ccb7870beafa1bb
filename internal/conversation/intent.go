// Package conversation implements the turn orchestration core: intent
// classification, bounded context assembly, backend dispatch, and the
// persistence ordering contract for each conversational turn.
package conversation

import "strings"

// Intent classifies a turn as requesting image generation or text generation.
type Intent int

const (
	// TextRequest routes the turn to the text-completion backend.
	TextRequest Intent = iota
	// ImageRequest routes the turn to the image-generation backend.
	ImageRequest
)

// imageKeywords is a deliberate cheap heuristic: false positives (e.g.
// "generate a summary") are an accepted tradeoff for zero-latency routing
// without an extra model call.
var imageKeywords = []string{"image", "photo", "picture", "show me", "draw", "generate"}

var creatorKeywords = []string{"who created you", "who made you", "creator"}

// ClassifyIntent maps raw message text to an intent. It is total: any input,
// including the empty string, yields a value.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, kw := range imageKeywords {
		if strings.Contains(lower, kw) {
			return ImageRequest
		}
	}
	return TextRequest
}

// IsCreatorQuery reports whether the text asks who built the bot. This check
// has priority over intent classification and bypasses both backends.
func IsCreatorQuery(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range creatorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
