// Package metrics provides a lightweight in-process metrics collector.
// It keeps Prometheus-style naming without pulling in client_golang;
// values are surfaced through the /status command rather than scraped.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Default is the process-wide collector.
var Default = NewCollector()

// Counters used across the bot.
var (
	RefreshOK        = Default.Counter("sitebot_refresh_total", `status="ok"`)
	RefreshFailed    = Default.Counter("sitebot_refresh_total", `status="error"`)
	AnswersOK        = Default.Counter("sitebot_answers_total", `status="ok"`)
	AnswersFailed    = Default.Counter("sitebot_answers_total", `status="error"`)
	CompletionErrors = Default.Counter("sitebot_completion_errors_total", "")
	ChannelPosts     = Default.Counter("sitebot_channel_posts_total", "")
)

// PlatformErrors counts platform errors by classified kind.
func PlatformErrors(kind string) *Counter {
	return Default.Counter("sitebot_platform_errors_total", fmt.Sprintf("kind=%q", kind))
}

// Collector aggregates named counters.
type Collector struct {
	counters  sync.Map // name{labels} -> *Counter
	startTime time.Time
}

func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	labels string
	value  atomic.Int64
}

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Add(n int64)  { c.value.Add(n) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Counter returns or creates the counter with the given name and labels.
func (c *Collector) Counter(name, labels string) *Counter {
	key := name + "{" + labels + "}"
	if v, ok := c.counters.Load(key); ok {
		return v.(*Counter)
	}
	ctr := &Counter{name: name, labels: labels}
	actual, _ := c.counters.LoadOrStore(key, ctr)
	return actual.(*Counter)
}

// Render writes all counters in exposition-like text form, sorted by
// name, for the /status report.
func (c *Collector) Render() string {
	var lines []string
	c.counters.Range(func(key, v any) bool {
		ctr := v.(*Counter)
		label := ctr.name
		if ctr.labels != "" {
			label += "{" + ctr.labels + "}"
		}
		lines = append(lines, fmt.Sprintf("%s %d", label, ctr.Value()))
		return true
	})
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
