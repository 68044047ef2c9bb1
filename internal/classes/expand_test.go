package classes

import (
	"testing"
	"time"

	"github.com/calicantus/studio-cms-backend/internal/dateutil"
)

func testLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func day(t *testing.T, key string, loc *time.Location) time.Time {
	t.Helper()
	d, err := dateutil.ParseKey(key, loc)
	if err != nil {
		t.Fatalf("parse key %s: %v", key, err)
	}
	return d
}

// weeklySeries builds a Monday 17:00-18:00 series anchored on 2025-02-17.
func weeklySeries(loc *time.Location) ClassEvent {
	patternID := uint(10)
	return ClassEvent{
		ID:         1,
		Title:      "Evening Flow",
		Instructor: "Dana",
		Capacity:   12,
		StartTime:  time.Date(2025, 2, 17, 17, 0, 0, 0, loc),
		EndTime:    time.Date(2025, 2, 17, 18, 0, 0, 0, loc),

		RecurringPatternID: &patternID,
		RecurringSeriesID:  &patternID,
		IsActive:           true,
		Pattern: &RecurrencePattern{
			ID:          patternID,
			PatternType: "weekly",
			Interval:    1,
			DaysOfWeek:  "1",
			StartsOn:    time.Date(2025, 2, 17, 0, 0, 0, 0, loc),
			IsActive:    true,
		},
	}
}

func occurrenceDates(occs []Occurrence) []string {
	dates := make([]string, len(occs))
	for i, o := range occs {
		dates[i] = o.Date
	}
	return dates
}

func TestExpandWeeklyMondays(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)

	occs := Expand([]ClassEvent{tmpl},
		day(t, "2025-02-01", loc), day(t, "2025-03-31", loc), nil, loc)

	expected := []string{
		"2025-02-17", "2025-02-24", "2025-03-03", "2025-03-10",
		"2025-03-17", "2025-03-24", "2025-03-31",
	}
	if len(occs) != len(expected) {
		t.Fatalf("expected %d occurrences, got %d (%v)", len(expected), len(occs), occurrenceDates(occs))
	}
	for i, o := range occs {
		if o.Date != expected[i] {
			t.Errorf("occurrence %d: expected %s, got %s", i, expected[i], o.Date)
		}
		if o.StartTime.Weekday() != time.Monday {
			t.Errorf("occurrence %s is not a Monday", o.Date)
		}
		if o.StartTime.Hour() != 17 || o.EndTime.Hour() != 18 {
			t.Errorf("occurrence %s: expected 17:00-18:00, got %v-%v", o.Date, o.StartTime, o.EndTime)
		}
		if !o.IsRecurring || o.EventID != tmpl.ID {
			t.Errorf("occurrence %s not attributed to the template", o.Date)
		}
		if o.ID != "1-"+o.Date {
			t.Errorf("occurrence %s: unexpected id %s", o.Date, o.ID)
		}
	}
}

func TestExpandSkipsExceptionDates(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)

	exceptions := func(patternID uint) map[string]bool {
		return map[string]bool{"2025-03-03": true}
	}

	occs := Expand([]ClassEvent{tmpl},
		day(t, "2025-02-01", loc), day(t, "2025-03-31", loc), exceptions, loc)

	if len(occs) != 6 {
		t.Fatalf("expected 6 occurrences, got %d (%v)", len(occs), occurrenceDates(occs))
	}
	for _, o := range occs {
		if o.Date == "2025-03-03" {
			t.Errorf("excluded date 2025-03-03 still present")
		}
	}
}

// Materialized rows belonging to the series must not change the expansion
// output: the series is always re-expanded from its template.
func TestExpandIgnoresMaterializedRows(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)
	patternID := *tmpl.RecurringPatternID

	materialized := []ClassEvent{
		{
			ID:                   2,
			Title:                tmpl.Title,
			StartTime:            time.Date(2025, 2, 24, 17, 0, 0, 0, loc),
			EndTime:              time.Date(2025, 2, 24, 18, 0, 0, 0, loc),
			RecurringPatternID:   &patternID,
			RecurringSeriesID:    &patternID,
			IsRecurringGenerated: true,
			OccurrenceDate:       "2025-02-24",
		},
		{
			ID:                   3,
			Title:                tmpl.Title,
			StartTime:            time.Date(2025, 3, 3, 17, 0, 0, 0, loc),
			EndTime:              time.Date(2025, 3, 3, 18, 0, 0, 0, loc),
			RecurringPatternID:   &patternID,
			RecurringSeriesID:    &patternID,
			IsRecurringGenerated: true,
			OccurrenceDate:       "2025-03-03",
		},
	}

	from, to := day(t, "2025-02-01", loc), day(t, "2025-03-31", loc)
	bare := Expand([]ClassEvent{tmpl}, from, to, nil, loc)
	withRows := Expand(append([]ClassEvent{tmpl}, materialized...), from, to, nil, loc)

	if len(bare) != len(withRows) {
		t.Fatalf("materialized rows changed output: %d vs %d", len(bare), len(withRows))
	}
	for i := range bare {
		if bare[i].ID != withRows[i].ID || !bare[i].StartTime.Equal(withRows[i].StartTime) {
			t.Errorf("occurrence %d differs: %+v vs %+v", i, bare[i], withRows[i])
		}
	}
}

func TestExpandPlainEventsPassThrough(t *testing.T) {
	loc := testLoc(t)

	inside := ClassEvent{
		ID:        5,
		Title:     "Open House",
		StartTime: time.Date(2025, 2, 20, 10, 0, 0, 0, loc),
		EndTime:   time.Date(2025, 2, 20, 12, 0, 0, 0, loc),
	}
	outside := ClassEvent{
		ID:        6,
		Title:     "Retreat",
		StartTime: time.Date(2025, 6, 1, 10, 0, 0, 0, loc),
		EndTime:   time.Date(2025, 6, 1, 12, 0, 0, 0, loc),
	}

	occs := Expand([]ClassEvent{inside, outside},
		day(t, "2025-02-01", loc), day(t, "2025-03-31", loc), nil, loc)

	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].ID != "5" || occs[0].IsRecurring {
		t.Errorf("unexpected pass-through occurrence: %+v", occs[0])
	}
}

// A preserved row detached from its deleted series has no pattern id but
// keeps the series id. It must pass through like a plain event.
func TestExpandDetachedPreservedRow(t *testing.T) {
	loc := testLoc(t)
	seriesID := uint(10)

	detached := ClassEvent{
		ID:                   7,
		Title:                "Evening Flow",
		StartTime:            time.Date(2025, 3, 10, 17, 0, 0, 0, loc),
		EndTime:              time.Date(2025, 3, 10, 18, 0, 0, 0, loc),
		RecurringSeriesID:    &seriesID,
		IsRecurringGenerated: true,
		IsRecurringPreserved: true,
		OccurrenceDate:       "2025-03-10",
	}

	occs := Expand([]ClassEvent{detached},
		day(t, "2025-03-01", loc), day(t, "2025-03-31", loc), nil, loc)

	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].ID != "7" || !occs[0].IsRecurring {
		t.Errorf("unexpected detached occurrence: %+v", occs[0])
	}
}

// A paused series must not re-expand its rule. Only rows that actually
// exist, like a booked survivor, stay on the calendar.
func TestExpandInactivePatternShowsOnlyConcreteRows(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)
	tmpl.Pattern.IsActive = false
	patternID := *tmpl.RecurringPatternID

	survivor := ClassEvent{
		ID:                   3,
		Title:                tmpl.Title,
		StartTime:            time.Date(2025, 3, 3, 17, 0, 0, 0, loc),
		EndTime:              time.Date(2025, 3, 3, 18, 0, 0, 0, loc),
		RecurringPatternID:   &patternID,
		RecurringSeriesID:    &patternID,
		IsRecurringGenerated: true,
		IsRecurringPreserved: true,
		OccurrenceDate:       "2025-03-03",
	}

	occs := Expand([]ClassEvent{tmpl, survivor},
		day(t, "2025-03-01", loc), day(t, "2025-03-31", loc), nil, loc)

	got := occurrenceDates(occs)
	if len(occs) != 1 || got[0] != "2025-03-03" {
		t.Fatalf("expected only the surviving row on 2025-03-03, got %v", got)
	}
	if occs[0].ID != "3" {
		t.Errorf("expected concrete row id 3, got %s", occs[0].ID)
	}
}

func TestExpandBiweeklyInterval(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)
	tmpl.Pattern.Interval = 2

	occs := Expand([]ClassEvent{tmpl},
		day(t, "2025-02-01", loc), day(t, "2025-03-31", loc), nil, loc)

	expected := []string{"2025-02-17", "2025-03-03", "2025-03-17", "2025-03-31"}
	got := occurrenceDates(occs)
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("occurrence %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

func TestExpandWeeklyDefaultsToAnchorWeekday(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)
	tmpl.Pattern.DaysOfWeek = ""

	occs := Expand([]ClassEvent{tmpl},
		day(t, "2025-02-01", loc), day(t, "2025-03-02", loc), nil, loc)

	got := occurrenceDates(occs)
	expected := []string{"2025-02-17", "2025-02-24"}
	if len(got) != len(expected) || got[0] != expected[0] || got[1] != expected[1] {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestExpandDailyInterval(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)
	tmpl.Pattern.PatternType = "daily"
	tmpl.Pattern.Interval = 3
	tmpl.Pattern.DaysOfWeek = ""

	occs := Expand([]ClassEvent{tmpl},
		day(t, "2025-02-17", loc), day(t, "2025-02-26", loc), nil, loc)

	got := occurrenceDates(occs)
	expected := []string{"2025-02-17", "2025-02-20", "2025-02-23", "2025-02-26"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("occurrence %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

// A pattern anchored on the 31st lands on the last day of shorter months.
func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	loc := testLoc(t)
	patternID := uint(11)
	tmpl := ClassEvent{
		ID:                 2,
		Title:              "Month End Workshop",
		StartTime:          time.Date(2025, 1, 31, 9, 0, 0, 0, loc),
		EndTime:            time.Date(2025, 1, 31, 11, 0, 0, 0, loc),
		RecurringPatternID: &patternID,
		Pattern: &RecurrencePattern{
			ID:          patternID,
			PatternType: "monthly",
			Interval:    1,
			StartsOn:    time.Date(2025, 1, 31, 0, 0, 0, 0, loc),
			IsActive:    true,
		},
	}

	occs := Expand([]ClassEvent{tmpl},
		day(t, "2025-02-01", loc), day(t, "2025-04-30", loc), nil, loc)

	got := occurrenceDates(occs)
	expected := []string{"2025-02-28", "2025-03-31", "2025-04-30"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("occurrence %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

func TestExpandRespectsEndDate(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)
	end := day(t, "2025-03-10", loc)
	tmpl.Pattern.EndDate = &end

	occs := Expand([]ClassEvent{tmpl},
		day(t, "2025-02-01", loc), day(t, "2025-03-31", loc), nil, loc)

	got := occurrenceDates(occs)
	if len(got) != 4 || got[len(got)-1] != "2025-03-10" {
		t.Errorf("expected 4 occurrences ending 2025-03-10, got %v", got)
	}
}

func TestExpandOvernightClassEndsNextDay(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)
	tmpl.StartTime = time.Date(2025, 2, 17, 22, 0, 0, 0, loc)
	tmpl.EndTime = time.Date(2025, 2, 17, 1, 0, 0, 0, loc)

	occs := Expand([]ClassEvent{tmpl},
		day(t, "2025-02-17", loc), day(t, "2025-02-17", loc), nil, loc)

	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	o := occs[0]
	if !o.EndTime.After(o.StartTime) {
		t.Errorf("overnight end %v not after start %v", o.EndTime, o.StartTime)
	}
	if o.EndTime.Day() != 18 || o.EndTime.Hour() != 1 {
		t.Errorf("expected end 01:00 on the 18th, got %v", o.EndTime)
	}
}

// Keys must follow the studio's local calendar day, not the UTC one.
func TestExpandDateKeysAreLocal(t *testing.T) {
	loc := testLoc(t)
	tmpl := weeklySeries(loc)
	// 11pm local Monday is 7am Tuesday UTC.
	tmpl.StartTime = time.Date(2025, 2, 17, 23, 0, 0, 0, loc).UTC()
	tmpl.EndTime = tmpl.StartTime.Add(time.Hour)

	occs := Expand([]ClassEvent{tmpl},
		day(t, "2025-02-17", loc), day(t, "2025-02-17", loc), nil, loc)

	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].Date != "2025-02-17" {
		t.Errorf("expected local key 2025-02-17, got %s", occs[0].Date)
	}
}

func TestSelectTemplatePrefersNonGenerated(t *testing.T) {
	loc := testLoc(t)
	patternID := uint(10)

	generated := ClassEvent{
		ID:                   2,
		StartTime:            time.Date(2025, 2, 10, 17, 0, 0, 0, loc),
		RecurringPatternID:   &patternID,
		IsRecurringGenerated: true,
	}
	template := ClassEvent{
		ID:                 1,
		StartTime:          time.Date(2025, 2, 17, 17, 0, 0, 0, loc),
		RecurringPatternID: &patternID,
	}

	if got := SelectTemplate([]ClassEvent{generated, template}); got == nil || got.ID != 1 {
		t.Errorf("expected template row 1, got %+v", got)
	}

	// All generated: fall back to the earliest row.
	if got := SelectTemplate([]ClassEvent{generated}); got == nil || got.ID != 2 {
		t.Errorf("expected fallback row 2, got %+v", got)
	}

	if got := SelectTemplate(nil); got != nil {
		t.Errorf("expected nil for empty group, got %+v", got)
	}
}
