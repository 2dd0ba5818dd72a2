// Package channel owns the Telegram side: polling, commands, the admin
// photo relay, and outbound delivery.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"sitebot/internal/domain"
	"sitebot/internal/metrics"
)

const (
	telegramMaxMsgLen      = 4000
	telegramPollTimeout    = 60
	telegramMaxSendRetries = 3

	rejectionText      = "Sorry, only the admin can post to the channel."
	defaultCaptionText = "Posted via sitebot"
)

// Telegram connects the bot to the chat platform. With a ChannelID and
// AdminUserID configured it also relays admin photos and documents to
// the channel (the channel-bot variant).
type Telegram struct {
	token        string
	channelID    string
	adminUserID  int64
	promo        string
	linksText    string
	startupDelay time.Duration

	// StatusFn renders the /status report. Optional.
	StatusFn func(ctx context.Context) string

	bot    *tgbotapi.BotAPI
	api    botAPI
	bus    domain.MessageBus
	logger *slog.Logger
}

// botAPI is the slice of the Telegram client the handlers use; tests
// substitute a fake.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type TelegramConfig struct {
	Token        string
	ChannelID    string // channel variant only
	AdminUserID  int64  // channel variant only
	Promo        string
	LinksText    string
	StartupDelay time.Duration
	Logger       *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Telegram{
		token:        cfg.Token,
		channelID:    cfg.ChannelID,
		adminUserID:  cfg.AdminUserID,
		promo:        cfg.Promo,
		linksText:    cfg.LinksText,
		startupDelay: cfg.StartupDelay,
		logger:       cfg.Logger,
	}
}

func (t *Telegram) relayEnabled() bool { return t.channelID != "" }

// Start connects to Telegram and polls for updates until ctx is
// cancelled. It clears any stale webhook first so long polling does not
// collide with a previous deployment.
func (t *Telegram) Start(ctx context.Context, bus domain.MessageBus) error {
	t.bus = bus

	if t.startupDelay > 0 {
		t.logger.Info("delaying startup", "delay", t.startupDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.startupDelay):
		}
	}

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		t.logPlatformError("connect", err)
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.api = bot
	t.logger.Info("telegram bot connected", "username", bot.Self.UserName, "id", bot.Self.ID)

	t.clearWebhook()

	bus.OnOutbound(func(msg domain.OutboundMessage) {
		chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
		if err != nil {
			t.logger.Error("invalid chat ID for outbound message", "chat_id", msg.ChatID, "err", err)
			return
		}
		t.sendMessage(chatID, msg.Content)
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = telegramPollTimeout
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(ctx, update)
		}
	}
}

// clearWebhook removes any registered webhook and drops pending updates.
// A leftover webhook from another instance causes 409 conflicts on
// getUpdates, so this runs before every polling start.
func (t *Telegram) clearWebhook() {
	if _, err := t.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		t.logPlatformError("deleteWebhook", err)
		return
	}
	t.logger.Info("webhook cleared, pending updates dropped")
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	chatID := msg.Chat.ID
	senderID := msg.From.ID

	if msg.IsCommand() {
		t.handleCommand(ctx, chatID, msg)
		return
	}

	if t.relayEnabled() && len(msg.Photo) > 0 {
		t.handlePhoto(chatID, senderID, msg)
		return
	}
	if t.relayEnabled() && msg.Document != nil {
		t.handleDocument(chatID, senderID, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	t.logger.Info("message received", "sender", senderID, "chat_id", chatID, "text_len", len(text))

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, _ = t.api.Request(typing)

	t.bus.Publish(domain.InboundMessage{
		Kind:      domain.KindText,
		ChatID:    strconv.FormatInt(chatID, 10),
		SenderID:  strconv.FormatInt(senderID, 10),
		Text:      text,
		Timestamp: time.Unix(int64(msg.Date), 0),
	})
}

func (t *Telegram) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		if t.relayEnabled() && msg.From.ID == t.adminUserID {
			t.sendMessage(chatID, "👋 Welcome, admin!\n\nSend me a photo or document and I'll post it to the channel with your caption.\n\nAnyone can ask me questions about the website.\n\nCommands:\n/status — bot status\n/links — our links")
			return
		}
		t.sendMessage(chatID, "👋 Hello! Ask me anything about our website and I'll answer from its latest content.")
	case "status":
		t.sendMessage(chatID, t.statusText(ctx, msg.From.ID))
	case "links":
		if t.relayEnabled() {
			t.sendMessage(chatID, t.linksText)
			return
		}
		t.sendMessage(chatID, "Unknown command. Try /start or /status.")
	default:
		t.sendMessage(chatID, "Unknown command. Try /start or /status.")
	}
}

func (t *Telegram) statusText(ctx context.Context, senderID int64) string {
	if t.adminUserID != 0 && senderID != t.adminUserID {
		return "✅ Bot is online and ready to help!"
	}
	if t.StatusFn != nil {
		return t.StatusFn(ctx)
	}
	if t.bot != nil {
		return fmt.Sprintf("🟢 Online as @%s", t.bot.Self.UserName)
	}
	return "🟢 Online"
}

// handlePhoto relays an admin photo to the configured channel with the
// caption plus the promotional link block. Non-admin senders get a
// rejection and nothing is posted.
func (t *Telegram) handlePhoto(chatID, senderID int64, msg *tgbotapi.Message) {
	if senderID != t.adminUserID {
		t.logger.Warn("photo from non-admin rejected", "sender", senderID)
		t.sendMessage(chatID, rejectionText)
		return
	}

	// Telegram sends several resolutions; the last one is the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	post := tgbotapi.NewPhoto(0, tgbotapi.FileID(fileID))
	post.Caption = t.withPromo(msg.Caption)
	t.applyChannelTarget(&post.BaseChat)

	if _, err := t.api.Send(post); err != nil {
		t.logPlatformError("sendPhoto", err)
		t.sendMessage(chatID, "❌ Error posting photo to channel. Please try again.")
		return
	}

	metrics.ChannelPosts.Inc()
	t.logger.Info("photo posted to channel", "channel", t.channelID)
	t.sendMessage(chatID, "✅ Photo posted to channel.")
}

func (t *Telegram) handleDocument(chatID, senderID int64, msg *tgbotapi.Message) {
	if senderID != t.adminUserID {
		t.logger.Warn("document from non-admin rejected", "sender", senderID)
		t.sendMessage(chatID, rejectionText)
		return
	}

	post := tgbotapi.NewDocument(0, tgbotapi.FileID(msg.Document.FileID))
	post.Caption = t.withPromo(msg.Caption)
	t.applyChannelTarget(&post.BaseChat)

	if _, err := t.api.Send(post); err != nil {
		t.logPlatformError("sendDocument", err)
		t.sendMessage(chatID, "❌ Error posting document to channel. Please try again.")
		return
	}

	metrics.ChannelPosts.Inc()
	t.logger.Info("document posted to channel", "channel", t.channelID)
	t.sendMessage(chatID, "✅ Document posted to channel.")
}

func (t *Telegram) withPromo(caption string) string {
	if caption == "" {
		caption = defaultCaptionText
	}
	if t.promo == "" {
		return caption
	}
	return caption + "\n\n" + t.promo
}

// applyChannelTarget points an outgoing post at the configured channel,
// which may be a numeric chat ID or an @username.
func (t *Telegram) applyChannelTarget(base *tgbotapi.BaseChat) {
	if id, err := strconv.ParseInt(t.channelID, 10, 64); err == nil {
		base.ChatID = id
		return
	}
	base.ChannelUsername = t.channelID
}

// logPlatformError classifies a platform error for logging and counts
// it. Classification never changes handling.
func (t *Telegram) logPlatformError(op string, err error) {
	kind := domain.ClassifyPlatformError(err)
	metrics.PlatformErrors(string(kind)).Inc()
	t.logger.Error("telegram platform error", "op", op, "kind", kind, "err", err)
}

// sendMessage splits long replies into chunks under Telegram's message
// size limit.
func (t *Telegram) sendMessage(chatID int64, text string) {
	for _, chunk := range splitMessage(text, telegramMaxMsgLen) {
		t.sendChunk(chatID, chunk)
	}
}

// splitMessage cuts text into pieces of at most maxLen bytes, preferring
// to cut on a newline.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxLen {
			cutAt := strings.LastIndex(chunk[:maxLen], "\n")
			if cutAt < maxLen/2 {
				cutAt = maxLen
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// sendChunk sends one message with backoff on rate limits and transient
// failures. Markdown that Telegram refuses to parse is resent as plain
// text rather than lost.
func (t *Telegram) sendChunk(chatID int64, text string) {
	for attempt := 0; attempt <= telegramMaxSendRetries; attempt++ {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown

		_, err := t.api.Send(msg)
		if err == nil {
			return
		}

		if strings.Contains(err.Error(), "can't parse entities") {
			t.logger.Warn("markdown rejected, resending as plain text", "chat_id", chatID)
			plain := tgbotapi.NewMessage(chatID, text)
			if _, err = t.api.Send(plain); err == nil {
				return
			}
		}

		kind := domain.ClassifyPlatformError(err)
		metrics.PlatformErrors(string(kind)).Inc()

		if strings.Contains(err.Error(), "Too Many Requests") || strings.Contains(err.Error(), "429") {
			retryAfter := time.Duration(attempt+1) * 3 * time.Second
			t.logger.Warn("telegram rate limited, backing off", "retry_after", retryAfter, "attempt", attempt+1)
			time.Sleep(retryAfter)
			continue
		}

		if attempt < telegramMaxSendRetries {
			backoff := time.Duration(attempt+1) * time.Second
			t.logger.Warn("telegram send error, retrying", "kind", kind, "err", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}

		t.logger.Error("telegram send failed after retries", "kind", kind, "err", err)
	}
}
