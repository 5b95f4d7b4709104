// Package timeutil normalizes the heterogeneous date strings found in feeds.
//
// Every timestamp produced here is a UTC instant. Serialized timestamps carry
// no zone suffix, so consumers must treat them as UTC.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the wire format for timestamps: UTC, microsecond precision, no zone suffix.
const Layout = "2006-01-02T15:04:05.999999"

// DateLayout is the format of a calendar day, used for daily brief dates.
const DateLayout = "2006-01-02"

// layouts are tried in order; the first successful parse wins.
// RFC3339 also accepts a literal "Z" and fractional seconds.
var layouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// zoneOffsets maps zone abbreviations seen in RSS pubDate fields to their UTC offset in hours.
var zoneOffsets = map[string]int{
	"UT": 0, "UTC": 0, "GMT": 0, "Z": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// ParseDate parses a feed date string and returns it as a UTC instant.
// Empty or unparseable input yields now in UTC.
func ParseDate(raw string, now time.Time) time.Time {
	t, err := Parse(raw)
	if err != nil {
		return now.UTC()
	}
	return t
}

// Parse is like ParseDate but reports failure instead of falling back to now.
func Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("parse date: empty input")
	}
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err != nil {
			continue
		}
		return resolveZone(t).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parse date: unsupported format %q", raw)
}

// resolveZone applies the real offset of a zone abbreviation that the time
// package could only parse as a zero-offset placeholder.
func resolveZone(t time.Time) time.Time {
	name, offset := t.Zone()
	if offset != 0 || name == "" {
		return t
	}
	hours, ok := zoneOffsets[strings.ToUpper(name)]
	if !ok || hours == 0 {
		return t
	}
	loc := time.FixedZone(name, hours*3600)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// TimeAgo renders the age of t relative to now using the largest nonzero unit:
// "3d ago", "5h ago", "12m ago" or "Just now". Future timestamps are "Just now".
func TimeAgo(t, now time.Time) string {
	d := now.UTC().Sub(t.UTC())
	if d <= 0 {
		return "Just now"
	}
	if days := int(d / (24 * time.Hour)); days > 0 {
		return fmt.Sprintf("%dd ago", days)
	}
	if hours := int(d / time.Hour); hours > 0 {
		return fmt.Sprintf("%dh ago", hours)
	}
	if minutes := int(d / time.Minute); minutes > 0 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	return "Just now"
}

// Format renders t in Layout after converting it to UTC.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}
