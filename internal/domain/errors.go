package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// FetchError wraps a failed website fetch or HTML parse.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// PersistError wraps a local storage I/O failure.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string { return fmt.Sprintf("persist %s: %v", e.Path, e.Err) }
func (e *PersistError) Unwrap() error { return e.Err }

// CompletionError wraps a failure from the language-model endpoint.
// StatusCode is zero for transport-level failures.
type CompletionError struct {
	StatusCode int
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion: %v", e.Err)
}
func (e *CompletionError) Unwrap() error { return e.Err }

// PlatformErrorKind classifies chat-platform transport failures. The
// classification is informational only: handling never branches on it.
type PlatformErrorKind string

const (
	PlatformConflict PlatformErrorKind = "conflict"
	PlatformNetwork  PlatformErrorKind = "network"
	PlatformTimeout  PlatformErrorKind = "timeout"
	PlatformOther    PlatformErrorKind = "other"
)

// ClassifyPlatformError tags a platform error for logging. A conflict
// means another bot instance is polling with the same token.
func ClassifyPlatformError(err error) PlatformErrorKind {
	if err == nil {
		return PlatformOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return PlatformTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return PlatformTimeout
		}
		return PlatformNetwork
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "409") || strings.Contains(msg, "Conflict"):
		return PlatformConflict
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return PlatformTimeout
	case strings.Contains(msg, "connection") || strings.Contains(msg, "no such host"):
		return PlatformNetwork
	default:
		return PlatformOther
	}
}
