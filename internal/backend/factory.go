package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfranco/lumibot/internal/config"
)

// NewClient creates and returns a Client based on the provided configuration.
// It acts as a factory, selecting either the OpenAI or Gemini implementation
// for text generation. Image generation always uses the OpenAI images API,
// so the gemini provider is composed with the OpenAI client for images.
func NewClient(ctx context.Context, cfg config.BackendConfig, logger *slog.Logger) (Client, error) {
	logger.Info("Initializing generation backend", "provider", cfg.Provider)

	openAI, err := newOpenAIClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	switch cfg.Provider {
	case "openai":
		return openAI, nil
	case "gemini":
		gemini, err := newGeminiClient(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return &splitClient{text: gemini, image: openAI}, nil
	default:
		return nil, fmt.Errorf("unknown backend provider specified: %s", cfg.Provider)
	}
}

// splitClient routes text and image generation to different implementations.
type splitClient struct {
	text  Client
	image Client
}

func (s *splitClient) GenerateText(ctx context.Context, prompts []Prompt) (string, error) {
	return s.text.GenerateText(ctx, prompts)
}

func (s *splitClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return s.image.GenerateImage(ctx, prompt)
}
