package classes

import (
	"fmt"
	"sort"
	"time"

	"github.com/calicantus/studio-cms-backend/internal/dateutil"
)

// Occurrence is one calendar entry handed to clients. Patterned occurrences
// are synthesized on the fly from the series template; plain events pass
// through unchanged.
type Occurrence struct {
	ID          string    `json:"id"`
	EventID     uint      `json:"event_id"`
	PatternID   *uint     `json:"pattern_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ClassType   string    `json:"class_type,omitempty"`
	Instructor  string    `json:"instructor,omitempty"`
	Capacity    int       `json:"capacity"`
	Location    string    `json:"location,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Date        string    `json:"date"` // local date key
	IsRecurring bool      `json:"is_recurring"`
}

// ruleSpec is the evaluated form of a pattern: the anchor is the template's
// local start date, and weekly patterns with no explicit weekday set fall
// back to the anchor's weekday.
type ruleSpec struct {
	patternType string
	interval    int
	weekdays    map[time.Weekday]bool
	anchor      time.Time // local midnight
	endDate     *time.Time
}

func newRuleSpec(p *RecurrencePattern, templateStart time.Time, loc *time.Location) ruleSpec {
	rule := ruleSpec{
		patternType: p.PatternType,
		interval:    p.Interval,
		weekdays:    p.Weekdays(),
		anchor:      dateutil.Midnight(templateStart, loc),
	}
	if rule.interval < 1 {
		rule.interval = 1
	}
	if p.EndDate != nil {
		end := dateutil.Midnight(*p.EndDate, loc)
		rule.endDate = &end
	}
	if rule.patternType == "weekly" && len(rule.weekdays) == 0 {
		rule.weekdays = map[time.Weekday]bool{rule.anchor.Weekday(): true}
	}
	return rule
}

// matches reports whether the local calendar day falls on the rule. All
// three pattern types use the same shape: distance from the anchor, modulo
// the interval.
func (r ruleSpec) matches(day time.Time, loc *time.Location) bool {
	switch r.patternType {
	case "daily":
		return dateutil.DaysBetween(r.anchor, day, loc)%r.interval == 0
	case "weekly":
		if !r.weekdays[day.Weekday()] {
			return false
		}
		return dateutil.WeeksBetween(r.anchor, day, loc)%r.interval == 0
	case "monthly":
		if dateutil.MonthsBetween(r.anchor, day, loc)%r.interval != 0 {
			return false
		}
		return day.Day() == dateutil.ClampDay(day, r.anchor.Day(), loc)
	default:
		return false
	}
}

// candidateDates walks the window day by day and keeps the dates the rule
// matches. The window is clipped to [anchor, endDate]; results are local
// midnights in ascending order.
func candidateDates(rule ruleSpec, from, to time.Time, loc *time.Location) []time.Time {
	start := dateutil.Midnight(from, loc)
	if start.Before(rule.anchor) {
		start = rule.anchor
	}
	end := dateutil.Midnight(to, loc)
	if rule.endDate != nil && rule.endDate.Before(end) {
		end = *rule.endDate
	}

	var days []time.Time
	for day := start; !day.After(end); day = dateutil.AddDays(day, 1) {
		if rule.matches(day, loc) {
			days = append(days, day)
		}
	}
	return days
}

// Expand turns a mixed slice of event rows into the occurrence list for a
// date window. Rows without a pattern pass through; rows belonging to a
// pattern are collapsed into their series, and the series is re-expanded
// from its template so edits to the template show up on every date. Paused
// series are never re-expanded; only their existing rows show. The result
// is sorted by start time and deduplicated per series and date.
//
// Purely computational: no clock reads, no storage access. Exceptions are
// supplied per pattern by the caller.
func Expand(events []ClassEvent, from, to time.Time, exceptionsOf func(patternID uint) map[string]bool, loc *time.Location) []Occurrence {
	windowStart := dateutil.Midnight(from, loc)
	windowEnd := dateutil.Midnight(to, loc)

	var out []Occurrence
	series := make(map[uint][]ClassEvent)
	var seriesOrder []uint

	for _, ev := range events {
		if ev.RecurringPatternID == nil {
			if occ, ok := plainOccurrence(ev, windowStart, windowEnd, loc); ok {
				out = append(out, occ)
			}
			continue
		}
		id := *ev.RecurringPatternID
		if _, seen := series[id]; !seen {
			seriesOrder = append(seriesOrder, id)
		}
		series[id] = append(series[id], ev)
	}

	for _, patternID := range seriesOrder {
		rows := series[patternID]
		tmpl := SelectTemplate(rows)
		if tmpl == nil {
			continue
		}
		pattern := seriesPattern(rows)
		if pattern == nil {
			// No rule attached; show the template as a one-off.
			if occ, ok := plainOccurrence(*tmpl, windowStart, windowEnd, loc); ok {
				out = append(out, occ)
			}
			continue
		}

		if !pattern.IsActive {
			// A paused rule generates nothing. Only rows that actually
			// exist, the template and any booked survivors, stay visible.
			seen := make(map[string]bool)
			for _, ev := range rows {
				occ, ok := plainOccurrence(ev, windowStart, windowEnd, loc)
				if !ok || seen[occ.Date] {
					continue
				}
				seen[occ.Date] = true
				out = append(out, occ)
			}
			continue
		}

		var exceptions map[string]bool
		if exceptionsOf != nil {
			exceptions = exceptionsOf(patternID)
		}

		out = append(out, expandSeries(tmpl, pattern, exceptions, windowStart, windowEnd, loc)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func expandSeries(tmpl *ClassEvent, pattern *RecurrencePattern, exceptions map[string]bool, from, to time.Time, loc *time.Location) []Occurrence {
	rule := newRuleSpec(pattern, tmpl.StartTime, loc)

	startLocal := tmpl.StartTime.In(loc)
	endLocal := tmpl.EndTime.In(loc)
	duration := endLocal.Sub(startLocal)
	if duration <= 0 {
		duration += 24 * time.Hour // overnight class
	}

	var out []Occurrence
	seen := make(map[string]bool)

	for _, day := range candidateDates(rule, from, to, loc) {
		key := dateutil.KeyOf(day, loc)
		if exceptions[key] || seen[key] {
			continue
		}
		seen[key] = true

		start := time.Date(day.Year(), day.Month(), day.Day(),
			startLocal.Hour(), startLocal.Minute(), 0, 0, loc)

		out = append(out, Occurrence{
			ID:          fmt.Sprintf("%d-%s", tmpl.ID, key),
			EventID:     tmpl.ID,
			PatternID:   &pattern.ID,
			Title:       tmpl.Title,
			Description: tmpl.Description,
			ClassType:   tmpl.ClassType,
			Instructor:  tmpl.Instructor,
			Capacity:    tmpl.Capacity,
			Location:    tmpl.Location,
			StartTime:   start,
			EndTime:     start.Add(duration),
			Date:        key,
			IsRecurring: true,
		})
	}
	return out
}

// plainOccurrence converts a pattern-less row (one-off classes and preserved
// detached occurrences) into an occurrence when it overlaps the window.
func plainOccurrence(ev ClassEvent, from, to time.Time, loc *time.Location) (Occurrence, bool) {
	day := dateutil.Midnight(ev.StartTime, loc)
	if day.Before(from) || day.After(to) {
		return Occurrence{}, false
	}
	return Occurrence{
		ID:          fmt.Sprintf("%d", ev.ID),
		EventID:     ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		ClassType:   ev.ClassType,
		Instructor:  ev.Instructor,
		Capacity:    ev.Capacity,
		Location:    ev.Location,
		StartTime:   ev.StartTime.In(loc),
		EndTime:     ev.EndTime.In(loc),
		Date:        dateutil.KeyOf(ev.StartTime, loc),
		IsRecurring: ev.RecurringSeriesID != nil,
	}, true
}

// seriesPattern returns the first loaded pattern object in a series group.
func seriesPattern(rows []ClassEvent) *RecurrencePattern {
	for i := range rows {
		if rows[i].Pattern != nil {
			return rows[i].Pattern
		}
	}
	return nil
}
