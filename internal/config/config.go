// Package config loads sitebot configuration from the process
// environment. A .env file in the working directory is honored when
// present; real environment variables win.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the root configuration for sitebot.
type Config struct {
	// Required credentials. Missing values are fatal at startup.
	TelegramToken string `env:"TELEGRAM_TOKEN"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`

	// Completion endpoint.
	OpenAIAPIBase string  `env:"OPENAI_API_BASE" envDefault:"https://api.openai.com/v1"`
	OpenAIModel   string  `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	MaxTokens     int     `env:"OPENAI_MAX_TOKENS" envDefault:"512"`
	Temperature   float64 `env:"OPENAI_TEMPERATURE" envDefault:"0.2"`

	// Knowledge pipeline.
	WebsiteURL     string        `env:"WEBSITE_URL"`
	KnowledgeFile  string        `env:"KNOWLEDGE_FILE" envDefault:"knowledge.txt"`
	ScrapeInterval time.Duration `env:"SCRAPE_INTERVAL" envDefault:"6h"`
	ScrapeMode     string        `env:"SCRAPE_MODE" envDefault:"http"` // http | browser

	// Channel variant.
	ChannelID   string `env:"CHANNEL_ID"`
	AdminUserID int64  `env:"ADMIN_USER_ID"`

	// Local state.
	DBPath    string `env:"DB_PATH" envDefault:"sitebot.db"`
	LinksFile string `env:"LINKS_FILE" envDefault:"links.yaml"`

	// Runtime.
	StartupDelay time.Duration `env:"STARTUP_DELAY" envDefault:"0s"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the optional .env file and parses the environment into a
// Config. It does not validate; call Validate before starting the bot.
func Load(logger *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks that everything the bot needs to start is present.
// channelVariant additionally requires the channel and admin identity.
func Validate(cfg *Config, channelVariant bool) error {
	var missing []string
	if cfg.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if cfg.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if cfg.WebsiteURL == "" {
		missing = append(missing, "WEBSITE_URL")
	}
	if channelVariant {
		if cfg.ChannelID == "" {
			missing = append(missing, "CHANNEL_ID")
		}
		if cfg.AdminUserID == 0 {
			missing = append(missing, "ADMIN_USER_ID")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.ScrapeMode != "http" && cfg.ScrapeMode != "browser" {
		return fmt.Errorf("invalid SCRAPE_MODE %q (want http or browser)", cfg.ScrapeMode)
	}
	if cfg.ScrapeInterval <= 0 {
		return fmt.Errorf("SCRAPE_INTERVAL must be positive, got %s", cfg.ScrapeInterval)
	}
	if cfg.MaxTokens <= 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must be positive, got %d", cfg.MaxTokens)
	}
	return nil
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
