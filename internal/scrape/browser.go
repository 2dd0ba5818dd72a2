package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

const browserFetchTimeout = 45 * time.Second

// BrowserFetcher renders the page in headless Chrome before extraction.
// Use it for sites that build their content with JavaScript; the plain
// HTTPFetcher is the default.
type BrowserFetcher struct {
	logger *slog.Logger
}

func NewBrowserFetcher(logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{logger: logger}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.UserAgent(userAgentString),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, browserFetchTimeout)
	defer timeoutCancel()

	var rendered string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &rendered),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	f.logger.Debug("rendered page in headless chrome", "url", url, "bytes", len(rendered))
	return rendered, nil
}
