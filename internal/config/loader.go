package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadConfig reads configuration from the given YAML file (optional) layered
// over defaults and BOT_* environment variables, then validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, env and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	v.SetDefault("telegram.mode", "poll")

	v.SetDefault("backend.provider", "openai")
	v.SetDefault("backend.base_url", "https://api.openai.com/v1")
	v.SetDefault("backend.model", "gpt-4o")
	v.SetDefault("backend.image_model", "dall-e-3")
	v.SetDefault("backend.gemini_model", "gemini-2.0-flash")
	v.SetDefault("backend.temperature", 1.0)
	v.SetDefault("backend.timeout", 2*time.Minute)
	v.SetDefault("backend.instruction",
		"You are a helpful assistant focused on providing clear and accurate responses.")

	v.SetDefault("database.path", "storage.db")
	v.SetDefault("database.retention_days", 0)

	v.SetDefault("messages.welcome",
		"👋 Welcome! Send me a message to start a conversation, or ask me to draw something.")
	v.SetDefault("messages.creator_reply",
		"I was created by my developer using Go and a large language model API.")
	v.SetDefault("messages.text_fallback",
		"❌ I couldn't reach my brain right now. Please try again later.")
	v.SetDefault("messages.empty_fallback",
		"🤔 I didn't come up with anything useful. Try rephrasing?")
	v.SetDefault("messages.image_caption", "Here's your image!")
	v.SetDefault("messages.image_error",
		"🎨 I couldn't generate that image. Please try again later.")
}
