package util

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first successful parse wins.
// Non-padded layouts also accept zero-padded input.
var dateLayouts = []string{
	"2006-1-2", // YYYY-MM-DD
	"1/2/2006", // MM/DD/YYYY
	"1-2-2006", // MM-DD-YYYY
	"2006/1/2", // YYYY/MM/DD
}

// ParseDate parses a free-text claim date. Blank or unrecognised input
// yields ok == false; it is never an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysBetween returns the whole calendar days from a to b (negative if b is before a)
func DaysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / 86400)
}
