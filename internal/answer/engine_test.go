package answer

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"sitebot/internal/bus"
	"sitebot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type fakeStore struct{ snippet string }

func (f *fakeStore) Write(text string) error         { f.snippet = text; return nil }
func (f *fakeStore) Read(ctx context.Context) string { return f.snippet }

// fakeCompleter returns answer when the prompt contains the expected
// snippet and the question matches; otherwise it flags the mismatch.
type fakeCompleter struct {
	t           *testing.T
	wantSnippet string
	wantQ       string
	answer      string
	err         error
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, question string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if !strings.Contains(systemPrompt, f.wantSnippet) {
		f.t.Errorf("system prompt missing snippet %q:\n%s", f.wantSnippet, systemPrompt)
	}
	if question != f.wantQ {
		f.t.Errorf("question: got %q, want %q", question, f.wantQ)
	}
	return f.answer, nil
}

func TestAnswer_Success(t *testing.T) {
	store := &fakeStore{snippet: "Acme ships on Fridays."}
	comp := &fakeCompleter{t: t, wantSnippet: store.snippet, wantQ: "when do you ship?", answer: "On Fridays."}

	e := NewEngine(EngineConfig{Store: store, Completer: comp, Logger: testLogger()})
	got := e.Answer(context.Background(), domain.InboundMessage{Kind: domain.KindText, ChatID: "7", Text: "when do you ship?"})

	if got != "On Fridays." {
		t.Errorf("expected model answer, got %q", got)
	}
}

func TestAnswer_PromoSuffix(t *testing.T) {
	store := &fakeStore{snippet: "S"}
	comp := &fakeCompleter{t: t, wantSnippet: "S", wantQ: "q", answer: "A"}

	e := NewEngine(EngineConfig{Store: store, Completer: comp, Promo: "Follow us: https://t.me/acme", Logger: testLogger()})
	got := e.Answer(context.Background(), domain.InboundMessage{Kind: domain.KindText, Text: "q"})

	if got != "A\n\nFollow us: https://t.me/acme" {
		t.Errorf("expected answer with promo suffix, got %q", got)
	}
}

func TestAnswer_CompletionErrorYieldsApology(t *testing.T) {
	store := &fakeStore{snippet: "S"}
	comp := &fakeCompleter{err: &domain.CompletionError{StatusCode: 429, Err: context.DeadlineExceeded}}

	e := NewEngine(EngineConfig{Store: store, Completer: comp, Promo: "promo", Logger: testLogger()})
	got := e.Answer(context.Background(), domain.InboundMessage{Kind: domain.KindText, Text: "q"})

	if got != ApologyText {
		t.Errorf("expected apology, got %q", got)
	}
	if strings.Contains(got, "429") || strings.Contains(got, "deadline") {
		t.Error("error details must never reach the user")
	}
}

func TestRun_RepliesOverBus(t *testing.T) {
	store := &fakeStore{snippet: "S"}
	comp := &fakeCompleter{t: t, wantSnippet: "S", wantQ: "hello?", answer: "hi"}
	b := bus.New(4, testLogger())
	defer b.Close()

	replies := make(chan domain.OutboundMessage, 1)
	b.OnOutbound(func(msg domain.OutboundMessage) { replies <- msg })

	e := NewEngine(EngineConfig{Store: store, Completer: comp, Bus: b, Logger: testLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	b.Publish(domain.InboundMessage{Kind: domain.KindText, ChatID: "9", Text: "hello?"})

	select {
	case msg := <-replies:
		if msg.ChatID != "9" || msg.Content != "hi" {
			t.Errorf("unexpected reply: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply delivered")
	}
}

func TestRun_IgnoresNonText(t *testing.T) {
	store := &fakeStore{snippet: "S"}
	comp := &fakeCompleter{t: t, wantSnippet: "S", answer: "never"}
	b := bus.New(4, testLogger())
	defer b.Close()

	replies := make(chan domain.OutboundMessage, 1)
	b.OnOutbound(func(msg domain.OutboundMessage) { replies <- msg })

	e := NewEngine(EngineConfig{Store: store, Completer: comp, Bus: b, Logger: testLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	b.Publish(domain.InboundMessage{Kind: domain.KindPhoto, ChatID: "9", FileID: "f1"})

	select {
	case msg := <-replies:
		t.Errorf("photo message should not produce an engine reply: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBuildSystemPrompt_Delimiters(t *testing.T) {
	p := BuildSystemPrompt("the snippet")
	if !strings.Contains(p, "--- BEGIN KNOWLEDGE BASE ---") || !strings.Contains(p, "--- END KNOWLEDGE BASE ---") {
		t.Error("prompt must delimit the knowledge block")
	}
	if !strings.Contains(p, DeflectionText) {
		t.Error("prompt must carry the deflection instruction")
	}
	if !strings.Contains(p, "the snippet") {
		t.Error("prompt must embed the snippet")
	}
}
