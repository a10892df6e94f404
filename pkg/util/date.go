package util

import (
	"strconv"
	"time"
)

// compactStamp is the wire format used by Alpha Vantage news feeds.
const compactStamp = "20060102T150405"

// ParseTime tries RFC3339, RFC3339Nano, the compact provider stamp, and unix
// seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(compactStamp, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// DateOnly reduces a timestamp to its UTC calendar date. Sentiment grouping
// keys on this.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AlignFromTo rounds the time range to boundaries for the sampling interval.
func AlignFromTo(from, to time.Time, interval string) (time.Time, time.Time) {
	switch interval {
	case "weekly":
		from = startOfWeek(from)
		to = startOfWeek(to)
	case "monthly":
		from = time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
		to = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, to.Location())
	default: // daily
		from = DateOnly(from)
		to = DateOnly(to)
	}
	return from, to
}

func startOfWeek(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday start
	return d.AddDate(0, 0, -offset)
}
