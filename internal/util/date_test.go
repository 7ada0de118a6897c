package util

import (
	"testing"
	"time"
)

func TestParseDate_AcceptedFormats(t *testing.T) {
	want := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)

	inputs := []string{
		"2024-03-07",
		"03/07/2024",
		"03-07-2024",
		"2024/03/07",
		"2024-3-7",
		"  2024-03-07  ",
	}

	for _, in := range inputs {
		got, ok := ParseDate(in)
		if !ok {
			t.Errorf("ParseDate(%q) failed", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseDate_Unknown(t *testing.T) {
	for _, in := range []string{"", "   ", "March 7, 2024", "2024.03.07", "13/45/2024", "nan"} {
		if _, ok := ParseDate(in); ok {
			t.Errorf("ParseDate(%q) expected failure", in)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	a, _ := ParseDate("2024-01-01")
	b, _ := ParseDate("2024-06-01")

	if got := DaysBetween(a, b); got != 152 {
		t.Errorf("expected 152 days, got %d", got)
	}
	if got := DaysBetween(b, a); got != -152 {
		t.Errorf("expected -152 days, got %d", got)
	}

	// Spans longer than a time.Duration can hold
	old, _ := ParseDate("1700-01-01")
	now, _ := ParseDate("2024-01-01")
	if got := DaysBetween(old, now); got != 118338 {
		t.Errorf("expected 118338 days, got %d", got)
	}
	if got := DaysBetween(now, old); got != -118338 {
		t.Errorf("expected -118338 days, got %d", got)
	}
}
