package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/mfranco/lumibot/internal/config"
)

// geminiClient implements the text side of Client using Google's Gemini API.
// Gemini offers no URL-returning image endpoint here, so image generation is
// delegated to the OpenAI client by the factory.
type geminiClient struct {
	genaiClient   *genai.Client
	logger        *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
}

func newGeminiClient(ctx context.Context, cfg config.BackendConfig, logger *slog.Logger) (*geminiClient, error) {
	if cfg.GeminiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	contentCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}

	log := logger.With("component", "gemini_client")
	log.Info("Gemini client initialized", "model", cfg.GeminiModel)

	return &geminiClient{
		genaiClient:   gi,
		logger:        log,
		contentConfig: contentCfg,
		modelName:     cfg.GeminiModel,
	}, nil
}

// GenerateText sends the assembled context to Gemini. The system prompt is
// carried as the request's system instruction; the remaining turns map to
// the user/model roles.
func (c *geminiClient) GenerateText(ctx context.Context, prompts []Prompt) (string, error) {
	cfg := *c.contentConfig

	contents := make([]*genai.Content, 0, len(prompts))
	for _, p := range prompts {
		switch p.Role {
		case RoleSystem:
			cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: p.Content}}}
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(p.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(p.Content, genai.RoleUser))
		}
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, &cfg)
	if err != nil {
		c.logger.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		c.logger.WarnContext(ctx, "Gemini response missing candidates or content")
		return "", ErrMalformedResponse
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrMalformedResponse
	}

	return text, nil
}

// GenerateImage is not supported by the Gemini text client; the factory
// never routes image requests here.
func (c *geminiClient) GenerateImage(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("image generation is not supported by the gemini backend")
}
