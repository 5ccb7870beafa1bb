package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"

	"github.com/mfranco/lumibot/internal/config"
)

// openAIClient implements Client using the OpenAI REST API for both
// chat completions and image generation.
type openAIClient struct {
	client      *gopenai.Client
	logger      *slog.Logger
	model       string
	imageModel  string
	temperature float32
}

func newOpenAIClient(cfg config.BackendConfig, logger *slog.Logger) (*openAIClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("openai API token is required")
	}

	clientCfg := gopenai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	log := logger.With("component", "openai_client")
	log.Info("OpenAI client initialized", "model", cfg.Model, "image_model", cfg.ImageModel)

	return &openAIClient{
		client:      gopenai.NewClientWithConfig(clientCfg),
		logger:      log,
		model:       cfg.Model,
		imageModel:  cfg.ImageModel,
		temperature: cfg.Temperature,
	}, nil
}

// GenerateText sends the assembled context to the chat completions endpoint
// and returns the first choice's content.
func (c *openAIClient) GenerateText(ctx context.Context, prompts []Prompt) (string, error) {
	messages := make([]gopenai.ChatCompletionMessage, 0, len(prompts))
	for _, p := range prompts {
		messages = append(messages, gopenai.ChatCompletionMessage{
			Role:    p.Role,
			Content: p.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "Chat completion request failed", "error", err)
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		c.logger.WarnContext(ctx, "Chat completion returned no choices")
		return "", ErrMalformedResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		c.logger.WarnContext(ctx, "Chat completion returned empty content")
		return "", ErrMalformedResponse
	}

	return content, nil
}

// GenerateImage sends the raw prompt to the images endpoint and returns the
// URL of the produced image.
func (c *openAIClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateImage(ctx, gopenai.ImageRequest{
		Prompt:         prompt,
		Model:          c.imageModel,
		N:              1,
		Size:           gopenai.CreateImageSize1024x1024,
		ResponseFormat: gopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "Image generation request failed", "error", err)
		return "", fmt.Errorf("image generation request failed: %w", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		c.logger.WarnContext(ctx, "Image generation returned no usable data")
		return "", ErrMalformedResponse
	}

	return resp.Data[0].URL, nil
}
