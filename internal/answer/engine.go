// Package answer implements the conversation engine: it reads the
// knowledge snippet, asks the completion endpoint, and replies.
package answer

import (
	"context"
	"log/slog"
	"time"

	"sitebot/internal/domain"
	"sitebot/internal/metrics"
)

// Engine consumes inbound text messages from the bus and sends one reply
// per message. No state is carried between messages.
type Engine struct {
	store     domain.SnippetStore
	completer domain.Completer
	bus       domain.MessageBus
	audit     domain.AuditStore // may be nil
	promo     string            // appended to successful answers; empty outside the channel variant
	logger    *slog.Logger
}

type EngineConfig struct {
	Store     domain.SnippetStore
	Completer domain.Completer
	Bus       domain.MessageBus
	Audit     domain.AuditStore
	Promo     string
	Logger    *slog.Logger
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		store:     cfg.Store,
		completer: cfg.Completer,
		bus:       cfg.Bus,
		audit:     cfg.Audit,
		promo:     cfg.Promo,
		logger:    cfg.Logger,
	}
}

// Run processes messages until the context is cancelled or the bus
// closes. Commands and media never reach the engine; the channel handles
// them before publishing.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("conversation engine started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("conversation engine stopped")
			return
		case msg, ok := <-e.bus.Subscribe():
			if !ok {
				return
			}
			if msg.Kind != domain.KindText {
				continue
			}
			reply := e.Answer(ctx, msg)
			e.bus.SendOutbound(domain.OutboundMessage{ChatID: msg.ChatID, Content: reply})
		}
	}
}

// Answer handles exactly one message: read snippet, complete, reply.
// Every failure collapses into the fixed apology string; the error text
// itself never reaches the user.
func (e *Engine) Answer(ctx context.Context, msg domain.InboundMessage) string {
	start := time.Now()

	knowledge := e.store.Read(ctx)
	reply, err := e.completer.Complete(ctx, BuildSystemPrompt(knowledge), msg.Text)

	status := "ok"
	if err != nil {
		status = "error"
		e.logger.Error("completion failed", "chat_id", msg.ChatID, "err", err)
		metrics.CompletionErrors.Inc()
		metrics.AnswersFailed.Inc()
		reply = ApologyText
	} else {
		metrics.AnswersOK.Inc()
		if e.promo != "" {
			reply = reply + "\n\n" + e.promo
		}
	}

	e.record(ctx, msg, status, time.Since(start))
	return reply
}

func (e *Engine) record(ctx context.Context, msg domain.InboundMessage, status string, latency time.Duration) {
	if e.audit == nil {
		return
	}
	rec := domain.AnswerRecord{
		At:          time.Now(),
		ChatID:      msg.ChatID,
		Status:      status,
		QuestionLen: len(msg.Text),
		LatencyMs:   latency.Milliseconds(),
	}
	if err := e.audit.RecordAnswer(ctx, rec); err != nil {
		e.logger.Warn("audit write failed", "err", err)
	}
}
