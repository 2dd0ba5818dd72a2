package domain

import (
	"context"
	"time"
)

// SnippetStore holds the single cached knowledge snippet.
//
// Read never fails and never returns empty text: on a miss or an
// empty/whitespace value the store repopulates itself, falling back to a
// fixed message when that also fails.
type SnippetStore interface {
	Write(text string) error
	Read(ctx context.Context) string
}

// Completer sends a composed system prompt plus user question to a
// language-model completion endpoint and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, question string) (string, error)
}

// RefreshRecord is one audit entry for a knowledge refresh cycle.
type RefreshRecord struct {
	At     time.Time
	Status string // "ok" | "error"
	Chars  int
	Error  string
}

// AnswerRecord is one audit entry for an answered message. Only the
// question's length is kept, never its text.
type AnswerRecord struct {
	At          time.Time
	ChatID      string
	Status      string // "ok" | "error"
	QuestionLen int
	LatencyMs   int64
}

// AuditStore records operational events for the /status report. It holds
// metadata only, never message content or snippet history.
type AuditStore interface {
	RecordRefresh(ctx context.Context, rec RefreshRecord) error
	RecordAnswer(ctx context.Context, rec AnswerRecord) error
	LastRefresh(ctx context.Context) (*RefreshRecord, error)
	AnswerCounts(ctx context.Context) (ok int64, failed int64, err error)
	Close() error
}
