package classes

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================
// 🔷 Recurrence Pattern Model
type RecurrencePattern struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PatternType string `gorm:"type:varchar(20);not null" json:"pattern_type"` // daily / weekly / monthly
	Interval    int    `gorm:"default:1" json:"interval"`                     // every N days/weeks/months

	// CSV of weekday ordinals (0=Sunday ... 6=Saturday), weekly patterns only.
	// Empty means: use the template's own weekday.
	DaysOfWeek string `gorm:"type:varchar(30)" json:"days_of_week"`

	StartsOn  time.Time  `gorm:"not null" json:"starts_on"`
	StartTime string     `gorm:"type:varchar(10)" json:"start_time"` // 🛠 string format: "15:04"
	EndTime   string     `gorm:"type:varchar(10)" json:"end_time"`   // 🛠 string format: "15:04"
	EndDate   *time.Time `json:"end_date,omitempty"`                 // inclusive

	IsActive              bool `gorm:"default:true" json:"is_active"`
	GenerationHorizonDays int  `gorm:"default:90" json:"generation_horizon_days"`

	// Metadata mirrored from the template event on every sync, so code paths
	// that read the pattern without the template join stay consistent.
	Title      string `gorm:"type:varchar(255)" json:"title"`
	ClassType  string `gorm:"type:varchar(100)" json:"class_type"`
	Instructor string `gorm:"type:varchar(255)" json:"instructor"`
	Capacity   int    `gorm:"default:0" json:"capacity"`

	LastMaterializedAt *time.Time `json:"last_materialized_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RecurrencePattern) TableName() string {
	return "recurrence_patterns"
}

// Weekdays parses the DaysOfWeek CSV into a weekday set. Unparseable or
// out-of-range entries are ignored.
func (p *RecurrencePattern) Weekdays() map[time.Weekday]bool {
	set := make(map[time.Weekday]bool)
	for _, part := range strings.Split(p.DaysOfWeek, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			continue
		}
		set[time.Weekday(n)] = true
	}
	return set
}

// FormatWeekdays renders a weekday set back to the CSV storage form.
func FormatWeekdays(days []int) string {
	uniq := make(map[int]bool)
	for _, d := range days {
		if d >= 0 && d <= 6 {
			uniq[d] = true
		}
	}
	ordered := make([]int, 0, len(uniq))
	for d := range uniq {
		ordered = append(ordered, d)
	}
	sort.Ints(ordered)
	parts := make([]string, len(ordered))
	for i, d := range ordered {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// ============================
// 🔷 Class Event Model
//
// One row is either a plain one-off class, the editable template of a
// recurring series, or a materialized occurrence generated from a pattern.
type ClassEvent struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	ClassType   string `gorm:"type:varchar(100)" json:"class_type"`
	Instructor  string `gorm:"type:varchar(255)" json:"instructor"`
	Capacity    int    `gorm:"default:0" json:"capacity"`
	Location    string `gorm:"type:varchar(255)" json:"location"`

	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	RecurringPatternID *uint `gorm:"index" json:"recurring_pattern_id,omitempty"`
	// Survives detachment from the pattern, so preserved occurrences can
	// still be traced back to the series they came from.
	RecurringSeriesID *uint `json:"recurring_series_id,omitempty"`

	IsRecurringGenerated bool `gorm:"default:false;index" json:"is_recurring_generated"`
	IsRecurringPreserved bool `gorm:"default:false" json:"is_recurring_preserved"`

	// Local calendar date key ("2006-01-02") this occurrence represents.
	OccurrenceDate string `gorm:"type:varchar(10)" json:"occurrence_date,omitempty"`

	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Normalized at the repository boundary: always a single canonical
	// pattern object, never a join-shaped array.
	Pattern *RecurrencePattern `gorm:"foreignKey:RecurringPatternID" json:"pattern,omitempty"`
}

func (ClassEvent) TableName() string {
	return "class_events"
}

// ============================
// 🔷 Recurring Exception Model
type RecurringException struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PatternID uint      `gorm:"not null;uniqueIndex:idx_pattern_exception_date" json:"pattern_id"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_pattern_exception_date" json:"date"` // local date key
	Reason    string    `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RecurringException) TableName() string {
	return "recurring_exceptions"
}

// ============================
// SelectTemplate picks the authoritative row of a recurring series: the
// earliest-starting row not flagged as generated, falling back to the
// earliest row overall. Returns nil for an empty group. Both the expansion
// function and the synchronizer use this one rule.
func SelectTemplate(rows []ClassEvent) *ClassEvent {
	var template *ClassEvent
	var earliest *ClassEvent

	for i := range rows {
		ev := &rows[i]
		if earliest == nil || ev.StartTime.Before(earliest.StartTime) {
			earliest = ev
		}
		if ev.IsRecurringGenerated {
			continue
		}
		if template == nil || ev.StartTime.Before(template.StartTime) {
			template = ev
		}
	}

	if template != nil {
		return template
	}
	return earliest
}

// ============================
// 🟡 Request DTOs

type RecurrenceRequest struct {
	PatternType           string `json:"pattern_type" binding:"required"` // daily / weekly / monthly
	Interval              int    `json:"interval"`
	DaysOfWeek            []int  `json:"days_of_week,omitempty"`
	EndDate               string `json:"end_date,omitempty"` // 🛠 string format: "2006-01-02"
	GenerationHorizonDays int    `json:"generation_horizon_days,omitempty"`
}

type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ClassType   string `json:"class_type"`
	Instructor  string `json:"instructor"`
	Capacity    int    `json:"capacity"`
	Location    string `json:"location"`
	Date        string `json:"date" binding:"required"`       // 🛠 string format: "2006-01-02"
	StartTime   string `json:"start_time" binding:"required"` // 🛠 string format: "15:04"
	EndTime     string `json:"end_time" binding:"required"`   // 🛠 string format: "15:04"
	IsActive    *bool  `json:"is_active,omitempty"`

	// Optional: create a recurring series with this event as its template.
	Recurrence *RecurrenceRequest `json:"recurrence,omitempty"`
}

type UpdateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ClassType   string `json:"class_type"`
	Instructor  string `json:"instructor"`
	Capacity    int    `json:"capacity"`
	Location    string `json:"location"`
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type UpdatePatternRequest struct {
	PatternType           string `json:"pattern_type" binding:"required"`
	Interval              int    `json:"interval"`
	DaysOfWeek            []int  `json:"days_of_week,omitempty"`
	EndDate               string `json:"end_date,omitempty"`
	GenerationHorizonDays int    `json:"generation_horizon_days,omitempty"`
}

type ExceptionRequest struct {
	Date   string `json:"date" binding:"required"` // 🛠 string format: "2006-01-02"
	Reason string `json:"reason,omitempty"`
}
