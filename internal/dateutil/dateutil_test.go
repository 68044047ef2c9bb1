package dateutil

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestKeyOfUsesLocalDay(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	// 11pm Feb 17 in LA is 7am Feb 18 UTC. The key must stay on the 17th.
	evening := time.Date(2025, 2, 17, 23, 0, 0, 0, la)

	if got := KeyOf(evening, la); got != "2025-02-17" {
		t.Errorf("KeyOf local evening: expected 2025-02-17, got %s", got)
	}
	if got := KeyOf(evening.UTC(), la); got != "2025-02-17" {
		t.Errorf("KeyOf same instant as UTC: expected 2025-02-17, got %s", got)
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	day, err := ParseKey("2025-02-17", la)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.Hour() != 0 || day.Location() != la {
		t.Errorf("expected local midnight, got %v", day)
	}
	if got := KeyOf(day, la); got != "2025-02-17" {
		t.Errorf("round trip: expected 2025-02-17, got %s", got)
	}
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	// US DST starts 2025-03-09; that local day is only 23 hours long.
	before, _ := ParseKey("2025-03-08", la)
	after, _ := ParseKey("2025-03-10", la)

	if got := DaysBetween(before, after, la); got != 2 {
		t.Errorf("expected 2 days across DST boundary, got %d", got)
	}
	if got := DaysBetween(after, before, la); got != -2 {
		t.Errorf("expected -2 days reversed, got %d", got)
	}
}

func TestWeekStartIsMonday(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	tests := []struct {
		day      string
		expected string
	}{
		{"2025-02-17", "2025-02-17"}, // Monday
		{"2025-02-20", "2025-02-17"}, // Thursday
		{"2025-02-23", "2025-02-17"}, // Sunday belongs to the preceding Monday
		{"2025-02-24", "2025-02-24"}, // next Monday
	}

	for _, tt := range tests {
		day, _ := ParseKey(tt.day, la)
		if got := KeyOf(WeekStart(day, la), la); got != tt.expected {
			t.Errorf("WeekStart(%s): expected %s, got %s", tt.day, tt.expected, got)
		}
	}
}

func TestWeeksBetween(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	anchor, _ := ParseKey("2025-02-17", la) // Monday
	sameWeek, _ := ParseKey("2025-02-21", la)
	nextWeek, _ := ParseKey("2025-02-26", la)
	threeWeeks, _ := ParseKey("2025-03-10", la)

	if got := WeeksBetween(anchor, sameWeek, la); got != 0 {
		t.Errorf("same week: expected 0, got %d", got)
	}
	if got := WeeksBetween(anchor, nextWeek, la); got != 1 {
		t.Errorf("next week: expected 1, got %d", got)
	}
	if got := WeeksBetween(anchor, threeWeeks, la); got != 3 {
		t.Errorf("three weeks: expected 3, got %d", got)
	}
}

func TestMonthsBetweenAndClampDay(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	jan31, _ := ParseKey("2025-01-31", la)
	feb, _ := ParseKey("2025-02-01", la)
	apr, _ := ParseKey("2025-04-01", la)

	if got := MonthsBetween(jan31, feb, la); got != 1 {
		t.Errorf("jan->feb: expected 1, got %d", got)
	}
	if got := MonthsBetween(jan31, apr, la); got != 3 {
		t.Errorf("jan->apr: expected 3, got %d", got)
	}

	if got := ClampDay(feb, 31, la); got != 28 {
		t.Errorf("clamp 31 in Feb 2025: expected 28, got %d", got)
	}
	if got := ClampDay(apr, 31, la); got != 30 {
		t.Errorf("clamp 31 in Apr: expected 30, got %d", got)
	}
	if got := ClampDay(apr, 15, la); got != 15 {
		t.Errorf("clamp 15 in Apr: expected 15, got %d", got)
	}
}

func TestCombineUsesConfiguredZone(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")

	day, _ := ParseKey("2025-02-17", la)
	start, err := Combine(day, "17:00", la)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if start.Hour() != 17 || start.Minute() != 0 {
		t.Errorf("expected 17:00 local, got %v", start)
	}
	if start.Location() != la {
		t.Errorf("expected LA zone, got %v", start.Location())
	}
	// 5pm PST is 1am UTC next day
	if start.UTC().Day() != 18 || start.UTC().Hour() != 1 {
		t.Errorf("expected 01:00 UTC Feb 18, got %v", start.UTC())
	}
}

func TestCombineRejectsBadClock(t *testing.T) {
	la := mustLoc(t, "America/Los_Angeles")
	day, _ := ParseKey("2025-02-17", la)

	for _, clock := range []string{"", "17", "25:00", "17:60", "5pm"} {
		if _, err := Combine(day, clock, la); err == nil {
			t.Errorf("expected error for clock %q", clock)
		}
	}
}
