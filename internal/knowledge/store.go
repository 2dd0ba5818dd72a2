// Package knowledge persists the scraped website text and keeps it
// fresh in the background.
package knowledge

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"sitebot/internal/domain"
)

// FallbackText is returned when the snippet cannot be read or scraped.
// Read never surfaces an error to the caller, this is the floor.
const FallbackText = "Please visit our website for detailed information."

// Extractor is the scrape dependency of the store.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Store holds the single knowledge snippet in one plain-text file,
// written and read as a whole. Last write wins; no history is kept.
type Store struct {
	path      string
	url       string
	extractor Extractor
	logger    *slog.Logger
}

func NewStore(path, url string, extractor Extractor, logger *slog.Logger) *Store {
	return &Store{path: path, url: url, extractor: extractor, logger: logger}
}

// Write replaces the stored snippet wholesale.
func (s *Store) Write(text string) error {
	if err := os.WriteFile(s.path, []byte(text), 0o644); err != nil {
		return &domain.PersistError{Path: s.path, Err: err}
	}
	return nil
}

// Read returns the current snippet. A missing or empty file triggers a
// synchronous scrape of the configured URL; if that fails too, the fixed
// fallback text is returned. Read never fails and never returns
// empty/whitespace-only text.
func (s *Store) Read(ctx context.Context) string {
	data, err := os.ReadFile(s.path)
	if err == nil && strings.TrimSpace(string(data)) != "" {
		return string(data)
	}
	if err != nil && !os.IsNotExist(err) {
		s.logger.Error("knowledge file unreadable", "path", s.path, "err", err)
	} else {
		s.logger.Info("knowledge file missing or empty, scraping now", "path", s.path)
	}

	text, err := s.extractor.Extract(ctx, s.url)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Error("fallback scrape failed", "url", s.url, "err", err)
		} else {
			s.logger.Warn("fallback scrape returned empty text", "url", s.url)
		}
		return FallbackText
	}

	if err := s.Write(text); err != nil {
		// Still serve the fresh text; persistence is best effort here.
		s.logger.Error("could not persist scraped knowledge", "err", err)
	}
	return text
}
