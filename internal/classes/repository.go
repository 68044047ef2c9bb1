package classes

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ColumnSupport describes which optional columns exist in this deployment's
// class_events table. Detected once at startup; repositories built without
// a column silently skip the writes that need it instead of failing every
// sync.
type ColumnSupport struct {
	Preserved bool // is_recurring_preserved
}

type Repository interface {
	// Patterns
	GetPatternByID(ctx context.Context, id uint) (*RecurrencePattern, error)
	ListActivePatternIDs(ctx context.Context) ([]uint, error)
	CreatePattern(ctx context.Context, p *RecurrencePattern) error
	UpdatePattern(ctx context.Context, p *RecurrencePattern) error
	DeletePattern(ctx context.Context, id uint) error

	// Exceptions
	ListExceptions(ctx context.Context, patternID uint) ([]RecurringException, error)
	ListExceptionDates(ctx context.Context, patternID uint) (map[string]bool, error)
	AddException(ctx context.Context, ex *RecurringException) error
	RemoveException(ctx context.Context, patternID uint, date string) error
	DeleteExceptionsByPattern(ctx context.Context, patternID uint) error

	// Events
	GetEventByID(ctx context.Context, id uint) (*ClassEvent, error)
	ListEventsByPatternID(ctx context.Context, patternID uint) ([]ClassEvent, error)
	ListEventsInRange(ctx context.Context, from, to time.Time) ([]ClassEvent, error)
	ListTemplatesForActivePatterns(ctx context.Context) ([]ClassEvent, error)
	CreateEvent(ctx context.Context, ev *ClassEvent) error
	UpdateEvent(ctx context.Context, ev *ClassEvent) error
	DeleteEvent(ctx context.Context, id uint) error
	MarkEventPreserved(ctx context.Context, id uint) error
	DetachEvent(ctx context.Context, id uint, preserved bool) error
}

type repository struct {
	db   *gorm.DB
	cols ColumnSupport
}

func NewRepository(db *gorm.DB, cols ColumnSupport) Repository {
	return &repository{db: db, cols: cols}
}

// ============================
// Patterns

func (r *repository) GetPatternByID(ctx context.Context, id uint) (*RecurrencePattern, error) {
	var p RecurrencePattern
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListActivePatternIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&RecurrencePattern{}).
		Where("is_active = ?", true).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) CreatePattern(ctx context.Context, p *RecurrencePattern) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) UpdatePattern(ctx context.Context, p *RecurrencePattern) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *repository) DeletePattern(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&RecurrencePattern{}, id).Error
}

// ============================
// Exceptions

func (r *repository) ListExceptions(ctx context.Context, patternID uint) ([]RecurringException, error) {
	var out []RecurringException
	err := r.db.WithContext(ctx).
		Where("pattern_id = ?", patternID).
		Order("date").
		Find(&out).Error
	return out, err
}

func (r *repository) ListExceptionDates(ctx context.Context, patternID uint) (map[string]bool, error) {
	rows, err := r.ListExceptions(ctx, patternID)
	if err != nil {
		return nil, err
	}
	dates := make(map[string]bool, len(rows))
	for _, ex := range rows {
		dates[ex.Date] = true
	}
	return dates, nil
}

func (r *repository) AddException(ctx context.Context, ex *RecurringException) error {
	return r.db.WithContext(ctx).Create(ex).Error
}

func (r *repository) RemoveException(ctx context.Context, patternID uint, date string) error {
	return r.db.WithContext(ctx).
		Where("pattern_id = ? AND date = ?", patternID, date).
		Delete(&RecurringException{}).Error
}

func (r *repository) DeleteExceptionsByPattern(ctx context.Context, patternID uint) error {
	return r.db.WithContext(ctx).
		Where("pattern_id = ?", patternID).
		Delete(&RecurringException{}).Error
}

// ============================
// Events

func (r *repository) GetEventByID(ctx context.Context, id uint) (*ClassEvent, error) {
	var ev ClassEvent
	if err := r.db.WithContext(ctx).Preload("Pattern").First(&ev, id).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *repository) ListEventsByPatternID(ctx context.Context, patternID uint) ([]ClassEvent, error) {
	var out []ClassEvent
	err := r.db.WithContext(ctx).
		Preload("Pattern").
		Where("recurring_pattern_id = ?", patternID).
		Order("start_time").
		Find(&out).Error
	return out, err
}

func (r *repository) ListEventsInRange(ctx context.Context, from, to time.Time) ([]ClassEvent, error) {
	var out []ClassEvent
	err := r.db.WithContext(ctx).
		Preload("Pattern").
		Where("is_active = ?", true).
		Where("start_time >= ? AND start_time < ?", from, to).
		Order("start_time").
		Find(&out).Error
	return out, err
}

// ListTemplatesForActivePatterns returns the non-generated rows of every
// active pattern, so series whose materialized rows fall outside a query
// range are still expanded into it.
func (r *repository) ListTemplatesForActivePatterns(ctx context.Context) ([]ClassEvent, error) {
	var out []ClassEvent
	err := r.db.WithContext(ctx).
		Preload("Pattern").
		Joins("JOIN recurrence_patterns ON recurrence_patterns.id = class_events.recurring_pattern_id").
		Where("recurrence_patterns.is_active = ?", true).
		Where("class_events.is_recurring_generated = ?", false).
		Order("class_events.start_time").
		Find(&out).Error
	return out, err
}

func (r *repository) CreateEvent(ctx context.Context, ev *ClassEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *repository) UpdateEvent(ctx context.Context, ev *ClassEvent) error {
	return r.db.WithContext(ctx).Save(ev).Error
}

func (r *repository) DeleteEvent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&ClassEvent{}, id).Error
}

func (r *repository) MarkEventPreserved(ctx context.Context, id uint) error {
	if !r.cols.Preserved {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&ClassEvent{}).
		Where("id = ?", id).
		Update("is_recurring_preserved", true).Error
}

// DetachEvent severs a row from its pattern while keeping the series id for
// traceability.
func (r *repository) DetachEvent(ctx context.Context, id uint, preserved bool) error {
	updates := map[string]interface{}{
		"recurring_pattern_id": nil,
	}
	if preserved && r.cols.Preserved {
		updates["is_recurring_preserved"] = true
	}
	return r.db.WithContext(ctx).
		Model(&ClassEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
}
