package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	inner := errors.New("connection refused")
	var err error = &FetchError{URL: "https://x.test", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("FetchError must unwrap to its cause")
	}

	err = &PersistError{Path: "/tmp/k.txt", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("PersistError must unwrap to its cause")
	}

	err = fmt.Errorf("handling message: %w", &CompletionError{StatusCode: 429, Err: inner})
	var ce *CompletionError
	if !errors.As(err, &ce) || ce.StatusCode != 429 {
		t.Error("CompletionError must survive wrapping")
	}
}

type timeoutErr struct{ timeout bool }

func (e *timeoutErr) Error() string   { return "dial tcp: i/o issue" }
func (e *timeoutErr) Timeout() bool   { return e.timeout }
func (e *timeoutErr) Temporary() bool { return false }

var _ net.Error = (*timeoutErr)(nil)

func TestClassifyPlatformError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want PlatformErrorKind
	}{
		{"conflict status", errors.New("Conflict: terminated by other getUpdates request"), PlatformConflict},
		{"conflict code", errors.New("telegram: 409 from getUpdates"), PlatformConflict},
		{"deadline", context.DeadlineExceeded, PlatformTimeout},
		{"net timeout", &timeoutErr{timeout: true}, PlatformTimeout},
		{"net error", &timeoutErr{timeout: false}, PlatformNetwork},
		{"connection string", errors.New("dial tcp: connection refused"), PlatformNetwork},
		{"timed out string", errors.New("request timed out"), PlatformTimeout},
		{"other", errors.New("can't parse entities"), PlatformOther},
		{"nil", nil, PlatformOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPlatformError(tt.err); got != tt.want {
				t.Errorf("ClassifyPlatformError(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyPlatformError_WrappedNetError(t *testing.T) {
	err := fmt.Errorf("poll: %w", &timeoutErr{timeout: true})
	if got := ClassifyPlatformError(err); got != PlatformTimeout {
		t.Errorf("wrapped net timeout should classify as timeout, got %s", got)
	}
}
