package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"sitebot/internal/answer"
	"sitebot/internal/bus"
	"sitebot/internal/channel"
	"sitebot/internal/config"
	"sitebot/internal/domain"
	"sitebot/internal/knowledge"
	"sitebot/internal/links"
	"sitebot/internal/metrics"
	"sitebot/internal/provider"
	"sitebot/internal/scrape"
	"sitebot/internal/store"
)

var (
	version = "0.2.0"
	logger  *slog.Logger
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "sitebot",
		Short:   "Telegram bot that answers questions from scraped website content",
		Version: version,
	}

	root.AddCommand(runCmd())
	root.AddCommand(channelCmd())
	root.AddCommand(refreshCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(resetCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the Q&A bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(false)
		},
	}
}

func channelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channel",
		Short: "Start the channel variant (Q&A plus admin photo relay)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(true)
		},
	}
}

// runBot wires the pipeline and blocks until a shutdown signal.
func runBot(channelVariant bool) error {
	cfg, err := config.Load(logger)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg, channelVariant); err != nil {
		// Missing configuration is the one fatal startup condition.
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor := scrape.New(cfg.ScrapeMode, logger)
	kstore := knowledge.NewStore(cfg.KnowledgeFile, cfg.WebsiteURL, extractor, logger)

	var audit domain.AuditStore
	if a, err := store.NewSQLiteAudit(cfg.DBPath, logger); err != nil {
		logger.Error("audit store unavailable, /status will be limited", "err", err)
	} else {
		audit = a
		defer a.Close()
	}

	refresher := knowledge.NewRefresher(kstore, extractor, audit, cfg.WebsiteURL, cfg.ScrapeInterval, logger)
	go refresher.Start(ctx)

	messageBus := bus.New(64, logger)
	defer messageBus.Close()

	completer := provider.NewOpenAI(provider.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		APIBase:     cfg.OpenAIAPIBase,
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Logger:      logger,
	})

	var promo, linksText string
	if channelVariant {
		l := links.Load(cfg.LinksFile, logger)
		promo = l.PromoBlock()
		linksText = l.ListText()
	}

	engine := answer.NewEngine(answer.EngineConfig{
		Store:     kstore,
		Completer: completer,
		Bus:       messageBus,
		Audit:     audit,
		Promo:     promo,
		Logger:    logger,
	})
	go engine.Run(ctx)

	tg := channel.NewTelegram(channel.TelegramConfig{
		Token:        cfg.TelegramToken,
		ChannelID:    channelTarget(cfg, channelVariant),
		AdminUserID:  adminTarget(cfg, channelVariant),
		Promo:        promo,
		LinksText:    linksText,
		StartupDelay: cfg.StartupDelay,
		Logger:       logger,
	})
	tg.StatusFn = statusReport(cfg, audit)

	logger.Info("sitebot starting",
		"version", version,
		"variant", variantName(channelVariant),
		"website", cfg.WebsiteURL,
		"interval", cfg.ScrapeInterval,
	)

	return tg.Start(ctx, messageBus)
}

func channelTarget(cfg *config.Config, variant bool) string {
	if !variant {
		return ""
	}
	return cfg.ChannelID
}

func adminTarget(cfg *config.Config, variant bool) int64 {
	if !variant {
		return 0
	}
	return cfg.AdminUserID
}

func variantName(channelVariant bool) string {
	if channelVariant {
		return "channel"
	}
	return "qa"
}

// statusReport renders the admin /status reply.
func statusReport(cfg *config.Config, audit domain.AuditStore) func(ctx context.Context) string {
	return func(ctx context.Context) string {
		out := fmt.Sprintf("🟢 sitebot v%s\nUptime: %s\nWebsite: %s\nRefresh interval: %s\n",
			version, metrics.Default.Uptime().Round(time.Second), cfg.WebsiteURL, cfg.ScrapeInterval)

		if audit != nil {
			if rec, err := audit.LastRefresh(ctx); err == nil && rec != nil {
				out += fmt.Sprintf("Last refresh: %s (%s, %d chars)\n",
					rec.At.Format(time.RFC3339), rec.Status, rec.Chars)
			}
			if ok, failed, err := audit.AnswerCounts(ctx); err == nil {
				out += fmt.Sprintf("Answers: %d ok, %d failed\n", ok, failed)
			}
		}

		out += "\n" + metrics.Default.Render()
		return out
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Scrape the website once and update the knowledge file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(logger)
			if err != nil {
				return err
			}
			if cfg.WebsiteURL == "" {
				return fmt.Errorf("WEBSITE_URL is not set")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			extractor := scrape.New(cfg.ScrapeMode, logger)
			text, err := extractor.Extract(ctx, cfg.WebsiteURL)
			if err != nil {
				return err
			}
			kstore := knowledge.NewStore(cfg.KnowledgeFile, cfg.WebsiteURL, extractor, logger)
			if err := kstore.Write(text); err != nil {
				return err
			}
			logger.Info("knowledge updated", "file", cfg.KnowledgeFile, "chars", len(text))
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local bot state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(logger)
			if err != nil {
				return err
			}
			ctx := context.Background()

			if fi, err := os.Stat(cfg.KnowledgeFile); err == nil {
				logger.Info("knowledge file", "path", cfg.KnowledgeFile, "bytes", fi.Size(), "modified", fi.ModTime().Format(time.RFC3339))
			} else {
				logger.Info("knowledge file", "path", cfg.KnowledgeFile, "exists", false)
			}

			audit, err := store.NewSQLiteAudit(cfg.DBPath, logger)
			if err != nil {
				logger.Warn("audit store unavailable", "err", err)
				return nil
			}
			defer audit.Close()

			if rec, err := audit.LastRefresh(ctx); err == nil && rec != nil {
				logger.Info("last refresh", "at", rec.At.Format(time.RFC3339), "status", rec.Status, "chars", rec.Chars)
			} else {
				logger.Info("last refresh", "recorded", false)
			}
			if ok, failed, err := audit.AnswerCounts(ctx); err == nil {
				logger.Info("answers", "ok", ok, "failed", failed)
			}
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the webhook and drop pending updates",
		Long:  "Use this when another instance left a webhook or polling conflict behind (Telegram error 409).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(logger)
			if err != nil {
				return err
			}
			if cfg.TelegramToken == "" {
				return fmt.Errorf("TELEGRAM_TOKEN is not set")
			}

			bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
			if err != nil {
				return fmt.Errorf("telegram bot init: %w", err)
			}
			if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
				return fmt.Errorf("delete webhook: %w", err)
			}
			logger.Info("webhook cleared, pending updates dropped", "bot", bot.Self.UserName)
			return nil
		},
	}
}
