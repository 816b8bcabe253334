// Package metrics provides the latency histogram and windowed throughput
// meter used by the CLI collaborators (replay/simulate), translated from
// the original source's metrics/src/lib.rs onto the Go HDR histogram
// ecosystem library.
package metrics

import (
	"fmt"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// LatencyStats is an HDR-style histogram over positive nanosecond
// durations, auto-resizing so a single outlier doesn't require
// pre-sizing the value range.
type LatencyStats struct {
	hist *hdrhistogram.Histogram
}

// NewLatencyStats constructs an empty histogram tracking values up to one
// second with 3 significant figures, matching the original's
// `Histogram::<u64>::new(3)` precision with auto-resize enabled.
func NewLatencyStats() *LatencyStats {
	hist := hdrhistogram.New(1, 1_000_000_000, 3)
	hist.SetAutoResize(true)
	return &LatencyStats{hist: hist}
}

// Record adds a nanosecond duration to the histogram.
func (l *LatencyStats) Record(ns int64) {
	_ = l.hist.RecordValue(ns)
}

// Count returns the number of recorded samples.
func (l *LatencyStats) Count() int64 {
	return l.hist.TotalCount()
}

// SummaryString formats "count=X p50=X p95=X p99=X max=X", matching the
// original's summary_string format.
func (l *LatencyStats) SummaryString() string {
	if l.hist.TotalCount() == 0 {
		return "count=0 p50=0 p95=0 p99=0 max=0"
	}
	return fmt.Sprintf("count=%d p50=%d p95=%d p99=%d max=%d",
		l.hist.TotalCount(),
		l.hist.ValueAtQuantile(50),
		l.hist.ValueAtQuantile(95),
		l.hist.ValueAtQuantile(99),
		l.hist.Max(),
	)
}

// ThroughputTracker counts events within a rolling window and reports a
// rate once the window has elapsed, then resets.
type ThroughputTracker struct {
	window      time.Duration
	windowStart time.Time
	count       uint64
	now         func() time.Time
}

// NewThroughputTracker constructs a tracker with the given window size.
func NewThroughputTracker(window time.Duration) *ThroughputTracker {
	now := time.Now
	return &ThroughputTracker{window: window, windowStart: now(), now: now}
}

// Record adds n events to the current window's count.
func (t *ThroughputTracker) Record(n uint64) {
	t.count += n
}

// EventsPerSec returns the rate once the window has elapsed, resetting the
// window and count; otherwise returns ok=false.
func (t *ThroughputTracker) EventsPerSec() (float64, bool) {
	elapsed := t.now().Sub(t.windowStart)
	if elapsed < t.window {
		return 0, false
	}
	rate := float64(t.count) / elapsed.Seconds()
	t.count = 0
	t.windowStart = t.now()
	return rate, true
}
