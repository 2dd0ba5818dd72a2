package knowledge

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sitebot/internal/domain"
	"sitebot/internal/metrics"
)

// Refresher re-scrapes the website on a fixed interval and overwrites
// the snippet store. A failed cycle is logged and counted, then the loop
// waits the full interval and tries again. The interval is constant: no
// backoff, no jitter, no skipping.
type Refresher struct {
	store     *Store
	extractor Extractor
	audit     domain.AuditStore // may be nil
	url       string
	interval  time.Duration
	logger    *slog.Logger
}

func NewRefresher(store *Store, extractor Extractor, audit domain.AuditStore, url string, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		store:     store,
		extractor: extractor,
		audit:     audit,
		url:       url,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs one immediate refresh, then ticks until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("knowledge refresher started", "url", r.url, "interval", r.interval)

	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("knowledge refresher stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single scrape-and-persist cycle. It never returns
// an error; failures only log, count, and leave the old snippet alone.
func (r *Refresher) RunOnce(ctx context.Context) {
	r.logger.Info("scraping website", "url", r.url)

	text, err := r.extractor.Extract(ctx, r.url)
	if err != nil {
		r.logger.Error("scrape failed", "url", r.url, "err", err)
		metrics.RefreshFailed.Inc()
		r.record(ctx, "error", 0, err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		r.logger.Warn("scraped content is empty, keeping previous snippet", "url", r.url)
		metrics.RefreshFailed.Inc()
		r.record(ctx, "error", 0, "empty content")
		return
	}

	if err := r.store.Write(text); err != nil {
		r.logger.Error("persist failed", "err", err)
		metrics.RefreshFailed.Inc()
		r.record(ctx, "error", len(text), err.Error())
		return
	}

	r.logger.Info("knowledge updated", "chars", len(text))
	metrics.RefreshOK.Inc()
	r.record(ctx, "ok", len(text), "")
}

func (r *Refresher) record(ctx context.Context, status string, chars int, errMsg string) {
	if r.audit == nil {
		return
	}
	rec := domain.RefreshRecord{At: time.Now(), Status: status, Chars: chars, Error: errMsg}
	if err := r.audit.RecordRefresh(ctx, rec); err != nil {
		r.logger.Warn("audit write failed", "err", err)
	}
}
