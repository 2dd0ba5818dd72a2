package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func validConfig() *Config {
	return &Config{
		TelegramToken:  "token",
		OpenAIAPIKey:   "key",
		WebsiteURL:     "https://example.com/",
		KnowledgeFile:  "knowledge.txt",
		ScrapeInterval: 6 * time.Hour,
		ScrapeMode:     "http",
		MaxTokens:      512,
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(validConfig(), false); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.TelegramToken = ""
	cfg.OpenAIAPIKey = ""
	err := Validate(cfg, false)
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "TELEGRAM_TOKEN") || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error should name the missing variables: %v", err)
	}
}

func TestValidate_ChannelVariantRequiresChannelAndAdmin(t *testing.T) {
	cfg := validConfig()
	if err := Validate(cfg, true); err == nil {
		t.Fatal("expected error for missing CHANNEL_ID and ADMIN_USER_ID")
	}

	cfg.ChannelID = "@mychannel"
	cfg.AdminUserID = 12345
	if err := Validate(cfg, true); err != nil {
		t.Fatalf("channel variant config should be valid: %v", err)
	}
}

func TestValidate_InvalidScrapeMode(t *testing.T) {
	cfg := validConfig()
	cfg.ScrapeMode = "ftp"
	if err := Validate(cfg, false); err == nil {
		t.Fatal("expected error for invalid scrape mode")
	}
}

func TestValidate_NonPositiveInterval(t *testing.T) {
	cfg := validConfig()
	cfg.ScrapeInterval = 0
	if err := Validate(cfg, false); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "tt")
	t.Setenv("OPENAI_API_KEY", "ok")
	t.Setenv("WEBSITE_URL", "https://site.test/")
	t.Setenv("SCRAPE_INTERVAL", "90m")

	cfg, err := Load(testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TelegramToken != "tt" {
		t.Errorf("TELEGRAM_TOKEN not picked up: %q", cfg.TelegramToken)
	}
	if cfg.ScrapeInterval != 90*time.Minute {
		t.Errorf("expected 90m interval, got %s", cfg.ScrapeInterval)
	}
	if cfg.OpenAIModel != "gpt-3.5-turbo" {
		t.Errorf("expected default model, got %q", cfg.OpenAIModel)
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "debug"
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Error("debug level not mapped")
	}
	cfg.LogLevel = "weird"
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Error("unknown level should default to info")
	}
}
