// Package timeutil holds the pure time arithmetic for the attention
// ledger. All timestamps and durations are in milliseconds.
package timeutil

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"reciprodb/pkg/models"
)

// NowMS returns the current wall-clock time in Unix milliseconds.
func NowMS() int64 {
	return time.Now().UTC().UnixMilli()
}

// Between returns the elapsed milliseconds from start to end, clamped
// to zero. Callers may backfill out-of-order timestamps; a negative
// span is treated as no elapsed time rather than negative credit.
func Between(start, end int64) int64 {
	if end < start {
		return 0
	}
	return end - start
}

// SpanDuration computes the duration of the attention span starting at
// events[index]: the gap to the next event when one exists, otherwise
// the gap to now (now <= 0 means wall-clock time). Indices outside
// [0, len) are a caller error.
func SpanDuration(events []models.AttentionSwitchEvent, index int, now int64) int64 {
	ev := events[index]
	if index+1 < len(events) {
		return Between(ev.TS, events[index+1].TS)
	}
	if now <= 0 {
		now = NowMS()
	}
	return Between(ev.TS, now)
}

// HumanDuration renders a millisecond duration as a rough human string,
// e.g. "30 minutes" or "2 hours". Used on read endpoints only; the
// numeric value stays authoritative.
func HumanDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	base := time.Unix(0, 0)
	return strings.TrimSpace(humanize.RelTime(base, base.Add(time.Duration(ms)*time.Millisecond), "", ""))
}
