package links

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestLoad_MissingFile(t *testing.T) {
	l := Load(filepath.Join(t.TempDir(), "nope.yaml"), testLogger())
	if l.PromoBlock() != defaultPromo {
		t.Errorf("expected default promo, got %q", l.PromoBlock())
	}
}

func TestLoad_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.yaml")
	content := `links:
  - title: Website
    url: https://acme.test
  - title: Channel
    url: https://t.me/acme
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := Load(path, testLogger())
	block := l.PromoBlock()
	if !strings.Contains(block, "Website: https://acme.test") {
		t.Errorf("promo block missing link: %q", block)
	}

	list := l.ListText()
	if !strings.Contains(list, "Channel — https://t.me/acme") {
		t.Errorf("list text missing link: %q", list)
	}
}

func TestLoad_PromoOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.yaml")
	content := "promo: |\n  Custom block here\nlinks:\n  - title: X\n    url: https://x.test\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := Load(path, testLogger())
	if l.PromoBlock() != "Custom block here" {
		t.Errorf("promo override not honored: %q", l.PromoBlock())
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	l := Load(path, testLogger())
	if l.PromoBlock() == "" {
		t.Error("malformed file should still yield a usable block")
	}
}
