// Package config provides configuration loading, validation, and management
// for the BrutalBot application. It handles reading from YAML files,
// BOT_* environment variables, default values, and validation of the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters for all components
// of the BrutalBot system: logging, Telegram, database, Gemini integration,
// payments, scheduled tasks, and user-facing messages.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram credentials and identity settings.
// BotInfo is populated at startup from GetMe and is not read from file.
type TelegramConfig struct {
	Token       string `mapstructure:"token" validate:"required"`
	BotName     string `mapstructure:"bot_name"`
	AdminUserID int64  `mapstructure:"admin_user_id"`

	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// GeminiConfig holds settings for the Gemini completion service.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	ModelName         string  `mapstructure:"model_name" validate:"required"`
	Temperature       float32 `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0"`
	MaxResponseLength int     `mapstructure:"max_response_length" validate:"min=1"`
}

// PaymentConfig holds settings for the premium upgrade invoice.
// Currency XTR with an empty provider token is the Telegram Stars flow.
type PaymentConfig struct {
	Currency     string `mapstructure:"currency" validate:"required"`
	PremiumPrice int    `mapstructure:"premium_price" validate:"min=1"`
}

// TaskConfig defines a single scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds the static user-facing message strings.
type MessagesConfig struct {
	RegisterPrompt     string `mapstructure:"register_prompt"`
	ChooseMode         string `mapstructure:"choose_mode"`
	AIError            string `mapstructure:"ai_error"`
	AIEmptyResponse    string `mapstructure:"ai_empty_response"`
	PaymentUnavailable string `mapstructure:"payment_unavailable"`
	DonateComingSoon   string `mapstructure:"donate_coming_soon"`
	NotAuthorized      string `mapstructure:"not_authorized"`
	GeneralError       string `mapstructure:"general_error"`
}

// LoadConfig reads configuration from the given YAML file (optional),
// overlays BOT_* environment variables, applies defaults, and validates
// the result. A missing config file is not an error; missing required
// values (Telegram token, Gemini API key) are.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file is optional; env vars and defaults still apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.bot_name", "BrutalBot")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 1.0)
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay_seconds", 2)
	v.SetDefault("gemini.max_response_length", 4096)

	v.SetDefault("payment.currency", "XTR")
	v.SetDefault("payment.premium_price", 250)

	v.SetDefault("scheduler.tasks.subscription_expiry.enabled", true)
	v.SetDefault("scheduler.tasks.subscription_expiry.schedule", "0 15 * * * *")
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 0 4 * * *")

	v.SetDefault("messages.register_prompt", "Please use /start first to register!")
	v.SetDefault("messages.choose_mode", "Choose a mode to start:")
	v.SetDefault("messages.ai_error", "⚠️ Error generating response. Please try again later.")
	v.SetDefault("messages.ai_empty_response", "⚠️ Empty response from AI")
	v.SetDefault("messages.payment_unavailable", "⚠️ Payment system is temporarily unavailable. Please contact support.")
	v.SetDefault("messages.donate_coming_soon", "Donation feature coming soon!")
	v.SetDefault("messages.not_authorized", "You are not authorized to use this command.")
	v.SetDefault("messages.general_error", "An error occurred. Please try again later.")
}
