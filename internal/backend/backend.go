// Package backend provides clients for the external generation services:
// text completion and image generation. Failures are returned as explicit
// errors so the caller can decide, per call site, how to degrade.
package backend

import "context"

// Prompt roles as expected by the text-generation services.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Prompt is a single role/content pair in a generation request.
type Prompt struct {
	Role    string
	Content string
}

// Client defines the operations against the generation backends.
// Both calls block; timeouts are owned by the underlying HTTP client.
type Client interface {
	// GenerateText calls the text-completion backend with the assembled
	// conversation context and returns the first completion's content.
	GenerateText(ctx context.Context, prompts []Prompt) (string, error)

	// GenerateImage calls the image-generation backend with the raw prompt
	// and returns a retrievable URL for the produced image.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}
