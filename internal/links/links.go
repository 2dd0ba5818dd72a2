// Package links loads the promotional link block appended to channel
// posts and the /links command content from a YAML file.
package links

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Link is one promoted destination.
type Link struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Links is the parsed links file.
type Links struct {
	// Promo overrides the generated block when set.
	Promo string `yaml:"promo"`
	Links []Link `yaml:"links"`
}

// defaultPromo is used when no links file is configured.
const defaultPromo = "Visit our website for more."

// Load reads the links file. A missing or broken file is not fatal: the
// bot falls back to a minimal block and keeps running.
func Load(path string, logger *slog.Logger) *Links {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("links file unreadable, using defaults", "path", path, "err", err)
		}
		return &Links{}
	}

	var l Links
	if err := yaml.Unmarshal(data, &l); err != nil {
		logger.Warn("links file malformed, using defaults", "path", path, "err", err)
		return &Links{}
	}
	logger.Info("links loaded", "path", path, "count", len(l.Links))
	return &l
}

// PromoBlock returns the block appended to channel posts and answers.
func (l *Links) PromoBlock() string {
	if l.Promo != "" {
		return strings.TrimSpace(l.Promo)
	}
	if len(l.Links) == 0 {
		return defaultPromo
	}
	var sb strings.Builder
	for i, link := range l.Links {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s: %s", link.Title, link.URL)
	}
	return sb.String()
}

// ListText renders the /links command reply.
func (l *Links) ListText() string {
	if len(l.Links) == 0 {
		return l.PromoBlock()
	}
	var sb strings.Builder
	sb.WriteString("Our links:\n")
	for _, link := range l.Links {
		fmt.Fprintf(&sb, "• %s — %s\n", link.Title, link.URL)
	}
	return strings.TrimRight(sb.String(), "\n")
}
