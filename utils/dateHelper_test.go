package utils

import (
	"testing"
	"time"
)

func TestParseFlexibleDate_KnownEncodings(t *testing.T) {
	want := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	cases := []string{
		"2025-12-01",
		"2025/12/01",
		"2025.12.01",
		"2025年12月01日",
		"2025年12月1日",
		" 2025-12-01 ",
	}
	for _, raw := range cases {
		got, ok := ParseFlexibleDate(raw)
		if !ok {
			t.Errorf("ParseFlexibleDate(%q) failed", raw)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseFlexibleDate(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestParseFlexibleDate_WithTime(t *testing.T) {
	got, ok := ParseFlexibleDate("2025/12/01 13:45:00")
	if !ok {
		t.Fatal("datetime form failed to parse")
	}
	if got.Hour() != 13 || got.Day() != 1 {
		t.Errorf("unexpected parse result: %s", got)
	}
}

func TestParseFlexibleDate_Unparseable(t *testing.T) {
	for _, raw := range []string{"", "  ", "not a date", "12/01"} {
		if got, ok := ParseFlexibleDate(raw); ok {
			t.Errorf("ParseFlexibleDate(%q) = %s, want failure", raw, got)
		}
	}
}

func TestFormatDisplayDate(t *testing.T) {
	if got := FormatDisplayDate("2025-12-01"); got != "2025/12/01" {
		t.Errorf("FormatDisplayDate = %q", got)
	}
	// unparseable input passes through trimmed, never dropped
	if got := FormatDisplayDate(" 納期未定 "); got != "納期未定" {
		t.Errorf("FormatDisplayDate passthrough = %q", got)
	}
}

func TestNormalizeSearchText(t *testing.T) {
	if got := NormalizeSearchText("  2025/12-01 ABC "); got != "20251201 abc" {
		t.Errorf("NormalizeSearchText = %q", got)
	}
}
