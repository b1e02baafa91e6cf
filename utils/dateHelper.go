package utils

import (
	"strings"
	"time"
)

// The coating log has been written by three generations of tooling, so date
// columns arrive in any of these encodings. Order matters: the most common
// forms come first.
var flexibleDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"2006.01.02",
	"2006年01月02日",
	"2006年1月2日",
	"02-01-2006",
}

// ParseFlexibleDate parses a free-text date from any known encoding.
// Returns (zero, false) when nothing matches; callers treat that as
// "earliest possible date" for sorting.
func ParseFlexibleDate(s string) (time.Time, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDisplayDate normalizes a free-text date to the panel's yyyy/mm/dd
// form. Unparseable input comes back trimmed but otherwise untouched rather
// than being dropped.
func FormatDisplayDate(s string) string {
	t, ok := ParseFlexibleDate(s)
	if !ok {
		return strings.TrimSpace(s)
	}
	return t.Format("2006/01/02")
}

// StripDateDelimiters removes the two delimiter characters that differ
// between date encodings, so "2025/12/01" and "2025-12-01" compare equal.
func StripDateDelimiters(s string) string {
	s = strings.ReplaceAll(s, "/", "")
	return strings.ReplaceAll(s, "-", "")
}

// NormalizeSearchText prepares user search input for blob matching: trim,
// lowercase, delimiter-strip. Applied once per query, not per row.
func NormalizeSearchText(s string) string {
	return StripDateDelimiters(strings.ToLower(strings.TrimSpace(s)))
}
