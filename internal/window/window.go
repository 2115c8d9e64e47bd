// Package window turns named periods and free-text bounds into the
// [since, until) window a sync run treats as authoritative.
package window

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/rohankatakam/skuld/internal/errors"
)

// Layout is the local, offset-free format used for window bounds everywhere:
// git queries, ledger ids and the report.
const Layout = "2006-01-02T15:04:05"

// Periods lists the accepted period names.
var Periods = []string{"today", "yesterday", "24h", "week"}

// Window is a half-open local time range.
type Window struct {
	Period string
	Since  time.Time
	Until  time.Time
}

// SinceISO returns Since in Layout
func (w Window) SinceISO() string { return w.Since.Format(Layout) }

// UntilISO returns Until in Layout
func (w Window) UntilISO() string { return w.Until.Format(Layout) }

func (w Window) String() string {
	return fmt.Sprintf("%s → %s", w.SinceISO(), w.UntilISO())
}

// ForPeriod computes the window for a named period relative to now.
func ForPeriod(period string, now time.Time) (Window, error) {
	now = now.Truncate(time.Second)
	midnight := startOfDay(now)

	switch strings.ToLower(period) {
	case "", "today":
		since := midnight
		if twelveHoursAgo := now.Add(-12 * time.Hour); twelveHoursAgo.After(since) {
			since = twelveHoursAgo
		}
		return Window{Period: "today", Since: since, Until: now}, nil
	case "yesterday":
		start := midnight.AddDate(0, 0, -1)
		end := time.Date(start.Year(), start.Month(), start.Day(), 23, 59, 59, 0, start.Location())
		return Window{Period: "yesterday", Since: start, Until: end}, nil
	case "24h", "24hours", "24", "day":
		return Window{Period: "24h", Since: now.Add(-24 * time.Hour), Until: now}, nil
	case "week", "thisweek":
		offset := (int(now.Weekday()) + 6) % 7 // Monday = 0
		return Window{Period: "week", Since: midnight.AddDate(0, 0, -offset), Until: now}, nil
	}
	return Window{}, errors.ValidationErrorf("unsupported period %q (want one of %s)",
		period, strings.Join(Periods, ", "))
}

// Resolve computes the window for period, then applies optional free-text
// since/until overrides such as "last monday" or "2025-01-01T09:00:00".
func Resolve(period, since, until string, now time.Time) (Window, error) {
	w, err := ForPeriod(period, now)
	if err != nil {
		return Window{}, err
	}
	if since != "" {
		t, err := ParseBound(since, now)
		if err != nil {
			return Window{}, err
		}
		w.Since = t
		w.Period = "custom"
	}
	if until != "" {
		t, err := ParseBound(until, now)
		if err != nil {
			return Window{}, err
		}
		w.Until = t
		w.Period = "custom"
	}
	if !w.Since.Before(w.Until) {
		return Window{}, errors.ValidationErrorf("window is empty: %s is not before %s", w.SinceISO(), w.UntilISO())
	}
	return w, nil
}

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseBound parses an explicit timestamp (Layout, RFC3339 or a bare date)
// and falls back to natural language relative to now.
func ParseBound(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if t, ok := ParseTimestamp(text); ok {
		return t.Truncate(time.Second), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", text, time.Local); err == nil {
		return t, nil
	}

	r, err := parser.Parse(text, now)
	if err != nil {
		return time.Time{}, errors.ValidationErrorf("cannot parse time %q: %v", text, err)
	}
	if r == nil {
		return time.Time{}, errors.ValidationErrorf("cannot parse time %q", text)
	}
	return r.Time.Truncate(time.Second), nil
}

// ParseTimestamp parses Layout as local time, or RFC3339 with its own offset.
func ParseTimestamp(text string) (time.Time, bool) {
	if t, err := time.ParseInLocation(Layout, text, time.Local); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
