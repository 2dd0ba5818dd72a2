// Package scrape fetches the target website and reduces its markup to
// readable plain text for prompt grounding.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"sitebot/internal/domain"
)

const (
	fetchTimeout  = 10 * time.Second
	fetchMaxBytes = 512 * 1024
	// Cap on the extracted text so a huge page cannot blow up the prompt.
	maxSnippetBytes = 64 * 1024
	userAgentString = "sitebot/0.2"
)

// strippedSelector matches markup that is never article content:
// navigation, ads scaffolding, scripts, and form chrome.
const strippedSelector = "nav, footer, header, aside, script, style, noscript, form, input, button, svg"

var strippedTags = map[string]bool{
	"nav": true, "footer": true, "header": true, "aside": true,
	"script": true, "style": true, "noscript": true,
	"form": true, "input": true, "button": true, "svg": true,
}

// Fetcher retrieves the raw HTML of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages with a plain HTTP GET.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: fetchTimeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgentString)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// Extractor turns a URL into a cleaned plain-text snippet.
type Extractor struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// New builds an Extractor for the given scrape mode ("http" or "browser").
func New(mode string, logger *slog.Logger) *Extractor {
	var f Fetcher
	if mode == "browser" {
		f = NewBrowserFetcher(logger)
	} else {
		f = NewHTTPFetcher()
	}
	return &Extractor{fetcher: f, logger: logger}
}

// NewWithFetcher builds an Extractor around a custom Fetcher.
func NewWithFetcher(f Fetcher, logger *slog.Logger) *Extractor {
	return &Extractor{fetcher: f, logger: logger}
}

// Extract fetches the URL and returns its readable text. Failures are
// wrapped as *domain.FetchError.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	raw, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	text, err := CleanHTML(raw)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	e.logger.Debug("extracted website text", "url", url, "chars", len(text))
	return text, nil
}

// CleanHTML strips non-content markup from an HTML document and returns
// the visible text, one trimmed string per line. The parse is
// best-effort: malformed HTML never fails, it just yields what it can.
func CleanHTML(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(strippedSelector).Remove()

	var lines []string
	for _, node := range doc.Find("body").Nodes {
		collectText(node, &lines)
	}
	// Documents without a body element (fragments) still parse into one
	// under x/net/html, so an empty result here means an empty page.

	text := strings.Join(lines, "\n")
	if len(text) > maxSnippetBytes {
		cut := strings.LastIndex(text[:maxSnippetBytes], "\n")
		if cut < maxSnippetBytes/2 {
			cut = maxSnippetBytes
		}
		text = text[:cut]
	}
	return text, nil
}

// collectText walks the node tree appending trimmed text nodes, skipping
// subtrees of stripped tags that survived the selector pass.
func collectText(n *html.Node, out *[]string) {
	if n.Type == html.ElementNode && strippedTags[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			*out = append(*out, s)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, out)
	}
}
