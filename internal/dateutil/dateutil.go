package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Local calendar date keys ("2006-01-02") are the only date identity used in
// this codebase. Keys are always derived from the local year/month/day in the
// studio timezone, never from a UTC-rendered string split, so an event at
// 11pm local stays on its own calendar day for users west of UTC. Both the
// display grouping and the synchronizer's occurrence_date bookkeeping go
// through this package.

const KeyLayout = "2006-01-02"

// KeyOf returns the local date key for t in loc.
func KeyOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(KeyLayout)
}

// ParseKey returns local midnight for a date key.
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(KeyLayout, key, loc)
}

// Midnight truncates t to local midnight in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// AddDays moves a local date forward by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the number of whole calendar days from a to b
// (negative when b precedes a). Both dates are normalized to UTC midnight
// first so the result survives DST transitions in loc.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ua := civilUTC(a, loc)
	ub := civilUTC(b, loc)
	return int(ub.Sub(ua).Hours() / 24)
}

// WeekStart returns the Monday of t's local week, at local midnight.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	day := Midnight(t, loc)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return AddDays(day, -offset)
}

// WeeksBetween returns the number of whole weeks between the weeks containing
// a and b.
func WeeksBetween(a, b time.Time, loc *time.Location) int {
	return DaysBetween(WeekStart(a, loc), WeekStart(b, loc), loc) / 7
}

// MonthsBetween returns the calendar month distance from a to b, ignoring the
// day-of-month.
func MonthsBetween(a, b time.Time, loc *time.Location) int {
	la := a.In(loc)
	lb := b.In(loc)
	return (lb.Year()-la.Year())*12 + int(lb.Month()) - int(la.Month())
}

// DaysInMonth returns the length of t's local month.
func DaysInMonth(t time.Time, loc *time.Location) int {
	lt := t.In(loc)
	first := time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, loc)
	return AddDays(first.AddDate(0, 1, 0), -1).Day()
}

// ClampDay returns day clamped to the length of t's local month, so a
// pattern anchored on the 31st lands on the last day of shorter months.
func ClampDay(t time.Time, day int, loc *time.Location) int {
	if max := DaysInMonth(t, loc); day > max {
		return max
	}
	return day
}

// Combine builds a timestamp from a local calendar date and a "15:04" clock
// string, interpreted in loc. The clock time belongs to the studio's zone
// regardless of where the server runs.
func Combine(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	ld := date.In(loc)
	return time.Date(ld.Year(), ld.Month(), ld.Day(), hour, minute, 0, 0, loc), nil
}

// ParseClock parses a "15:04" clock string.
func ParseClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format %q, use HH:MM", clock)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", clock)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", clock)
	}
	return hour, minute, nil
}

// civilUTC re-expresses t's local calendar date as UTC midnight. Date
// subtraction in UTC avoids 23h/25h days around DST changes.
func civilUTC(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}
