// Package config provides configuration loading, validation, and defaults
// for the LumiBot application. Values come from config.yaml and from
// environment variables prefixed with BOT_ (e.g., BOT_TELEGRAM_TOKEN).
package config

import "time"

// Config holds the full application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls structured logging output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the Telegram transport settings. Mode selects the
// update delivery transport; both modes feed the same turn handler.
type TelegramConfig struct {
	Token       string `mapstructure:"token"        validate:"required"`
	Mode        string `mapstructure:"mode"         validate:"oneof=poll webhook"`
	WebhookAddr string `mapstructure:"webhook_addr" validate:"required_if=Mode webhook"`
}

// BackendConfig holds the generation backend settings. Provider selects the
// text backend; image requests always go through the OpenAI images API.
type BackendConfig struct {
	Provider    string        `mapstructure:"provider"     validate:"oneof=openai gemini"`
	Token       string        `mapstructure:"token"        validate:"required"`
	BaseURL     string        `mapstructure:"base_url"     validate:"url"`
	Model       string        `mapstructure:"model"`
	ImageModel  string        `mapstructure:"image_model"`
	GeminiKey   string        `mapstructure:"gemini_key"   validate:"required_if=Provider gemini"`
	GeminiModel string        `mapstructure:"gemini_model"`
	Temperature float32       `mapstructure:"temperature"  validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"      validate:"min=1s,max=10m"`
	Instruction string        `mapstructure:"instruction"  validate:"required"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path          string `mapstructure:"path"           validate:"required"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=0"`
}

// SchedulerConfig holds the scheduled task table, keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a single named task with a cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds the user-visible canned strings. Raw backend or store
// errors are never shown to end users, only these.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"        validate:"required"`
	CreatorReply  string `mapstructure:"creator_reply"  validate:"required"`
	TextFallback  string `mapstructure:"text_fallback"  validate:"required"`
	EmptyFallback string `mapstructure:"empty_fallback" validate:"required"`
	ImageCaption  string `mapstructure:"image_caption"  validate:"required"`
	ImageError    string `mapstructure:"image_error"    validate:"required"`
}
