package classes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/calicantus/studio-cms-backend/internal/dateutil"
)

var (
	ErrDuplicateException = errors.New("date is already excluded for this series")
	ErrInvalidPatternType = errors.New("pattern_type must be daily, weekly or monthly")
	ErrInvalidDate        = errors.New("date must use the YYYY-MM-DD format")
	ErrInvalidTime        = errors.New("times must use the HH:MM format")
	ErrNotFound           = gorm.ErrRecordNotFound
)

type Service struct {
	repo Repository
	sync *Synchronizer
	loc  *time.Location
}

func NewService(repo Repository, sync *Synchronizer, loc *time.Location) *Service {
	return &Service{repo: repo, sync: sync, loc: loc}
}

// ============================
// 📅 Calendar

// GetCalendar returns the expanded occurrence list for an inclusive local
// date window. Series templates are always included in the expansion input
// even when their row falls outside the window, so a weekly class created
// months ago still shows up this week.
func (s *Service) GetCalendar(ctx context.Context, fromKey, toKey string) ([]Occurrence, error) {
	from, err := dateutil.ParseKey(fromKey, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := dateutil.ParseKey(toKey, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}

	rows, err := s.repo.ListEventsInRange(ctx, from, dateutil.AddDays(to, 1))
	if err != nil {
		return nil, err
	}
	templates, err := s.repo.ListTemplatesForActivePatterns(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(rows))
	for _, ev := range rows {
		seen[ev.ID] = true
	}
	for _, ev := range templates {
		if !seen[ev.ID] {
			rows = append(rows, ev)
		}
	}

	exceptions := make(map[uint]map[string]bool)
	for _, ev := range rows {
		if ev.RecurringPatternID == nil {
			continue
		}
		id := *ev.RecurringPatternID
		if _, ok := exceptions[id]; ok {
			continue
		}
		dates, err := s.repo.ListExceptionDates(ctx, id)
		if err != nil {
			return nil, err
		}
		exceptions[id] = dates
	}

	occurrences := Expand(rows, from, to, func(patternID uint) map[string]bool {
		return exceptions[patternID]
	}, s.loc)
	return occurrences, nil
}

// ============================
// 🗓 Events

func (s *Service) GetEvent(ctx context.Context, id uint) (*ClassEvent, error) {
	return s.repo.GetEventByID(ctx, id)
}

// CreateEvent creates a one-off class, or a recurring series when the
// request carries a recurrence rule. For a series the new row becomes the
// template and the first sync materializes the occurrences.
func (s *Service) CreateEvent(ctx context.Context, req *CreateEventRequest, actorID uint) (*ClassEvent, *SyncResult, error) {
	start, end, err := s.parseTimes(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, nil, err
	}

	ev := &ClassEvent{
		Title:       req.Title,
		Description: req.Description,
		ClassType:   req.ClassType,
		Instructor:  req.Instructor,
		Capacity:    req.Capacity,
		Location:    req.Location,
		StartTime:   start,
		EndTime:     end,
		IsActive:    true,
		CreatedBy:   actorID,
	}
	if req.IsActive != nil {
		ev.IsActive = *req.IsActive
	}

	if req.Recurrence == nil {
		if err := s.repo.CreateEvent(ctx, ev); err != nil {
			return nil, nil, err
		}
		return ev, nil, nil
	}

	pattern, err := s.buildPattern(req, start)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.CreatePattern(ctx, pattern); err != nil {
		return nil, nil, err
	}

	ev.RecurringPatternID = &pattern.ID
	ev.RecurringSeriesID = &pattern.ID
	if err := s.repo.CreateEvent(ctx, ev); err != nil {
		return nil, nil, err
	}

	res, err := s.sync.Sync(ctx, pattern.ID, nil)
	if err != nil {
		return nil, nil, err
	}
	return ev, res, nil
}

// UpdateEvent edits a row in place. Editing a series template resyncs the
// series so unbooked future occurrences pick up the change.
func (s *Service) UpdateEvent(ctx context.Context, id uint, req *UpdateEventRequest) (*ClassEvent, *SyncResult, error) {
	ev, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	start, end, err := s.parseTimes(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, nil, err
	}

	ev.Title = req.Title
	ev.Description = req.Description
	ev.ClassType = req.ClassType
	ev.Instructor = req.Instructor
	ev.Capacity = req.Capacity
	ev.Location = req.Location
	ev.StartTime = start
	ev.EndTime = end
	if req.IsActive != nil {
		ev.IsActive = *req.IsActive
	}
	if ev.IsRecurringGenerated {
		ev.OccurrenceDate = dateutil.KeyOf(start, s.loc)
	}

	if err := s.repo.UpdateEvent(ctx, ev); err != nil {
		return nil, nil, err
	}

	if ev.RecurringPatternID != nil && !ev.IsRecurringGenerated {
		res, err := s.sync.Sync(ctx, *ev.RecurringPatternID, nil)
		if err != nil {
			return nil, nil, err
		}
		return ev, res, nil
	}
	return ev, nil, nil
}

// DeleteEvent removes a single row. Deleting a series template tears down
// the whole series safely; deleting a generated occurrence records an
// exception for its date so the next sync does not bring it back.
func (s *Service) DeleteEvent(ctx context.Context, id uint) (*SyncResult, error) {
	ev, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ev.RecurringPatternID != nil && !ev.IsRecurringGenerated {
		return s.sync.DeletePatternSafely(ctx, *ev.RecurringPatternID)
	}

	if ev.RecurringPatternID != nil && ev.IsRecurringGenerated {
		ex := &RecurringException{
			PatternID: *ev.RecurringPatternID,
			Date:      eventDateKey(*ev, s.loc),
			Reason:    "occurrence deleted",
		}
		if err := s.repo.AddException(ctx, ex); err != nil && !isDuplicateKey(err) {
			return nil, err
		}
	}

	if err := s.repo.DeleteEvent(ctx, ev.ID); err != nil {
		return nil, err
	}
	return &SyncResult{DeletedUnbooked: 1}, nil
}

// ============================
// 🔁 Patterns

func (s *Service) GetPattern(ctx context.Context, id uint) (*RecurrencePattern, error) {
	return s.repo.GetPatternByID(ctx, id)
}

// UpdatePattern rewrites the recurrence rule and resyncs the series.
func (s *Service) UpdatePattern(ctx context.Context, id uint, req *UpdatePatternRequest) (*RecurrencePattern, *SyncResult, error) {
	if !validPatternType(req.PatternType) {
		return nil, nil, ErrInvalidPatternType
	}
	pattern, err := s.repo.GetPatternByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	pattern.PatternType = req.PatternType
	pattern.Interval = req.Interval
	if pattern.Interval < 1 {
		pattern.Interval = 1
	}
	pattern.DaysOfWeek = FormatWeekdays(req.DaysOfWeek)
	if req.GenerationHorizonDays > 0 {
		pattern.GenerationHorizonDays = req.GenerationHorizonDays
	}
	pattern.EndDate = nil
	if req.EndDate != "" {
		end, err := dateutil.ParseKey(req.EndDate, s.loc)
		if err != nil {
			return nil, nil, ErrInvalidDate
		}
		pattern.EndDate = &end
	}

	if err := s.repo.UpdatePattern(ctx, pattern); err != nil {
		return nil, nil, err
	}
	res, err := s.sync.Sync(ctx, pattern.ID, nil)
	if err != nil {
		return nil, nil, err
	}
	return pattern, res, nil
}

// SetPatternActive toggles a series. Deactivating sheds unbooked future
// occurrences on the following sync; reactivating regenerates them.
func (s *Service) SetPatternActive(ctx context.Context, id uint, active bool) (*SyncResult, error) {
	pattern, err := s.repo.GetPatternByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pattern.IsActive = active
	if err := s.repo.UpdatePattern(ctx, pattern); err != nil {
		return nil, err
	}
	return s.sync.Sync(ctx, id, nil)
}

func (s *Service) DeletePattern(ctx context.Context, id uint) (*SyncResult, error) {
	return s.sync.DeletePatternSafely(ctx, id)
}

func (s *Service) ResyncPattern(ctx context.Context, id uint, opts *SyncOptions) (*SyncResult, error) {
	return s.sync.Sync(ctx, id, opts)
}

func (s *Service) ResyncAll(ctx context.Context) (*SyncResult, error) {
	return s.sync.SyncAll(ctx)
}

// ============================
// 🚫 Exceptions

func (s *Service) ListExceptions(ctx context.Context, patternID uint) ([]RecurringException, error) {
	if _, err := s.repo.GetPatternByID(ctx, patternID); err != nil {
		return nil, err
	}
	return s.repo.ListExceptions(ctx, patternID)
}

// AddException excludes one date from a series and removes its unbooked
// materialized row via resync. Inserting the same date twice surfaces as
// ErrDuplicateException instead of a raw constraint error.
func (s *Service) AddException(ctx context.Context, patternID uint, req *ExceptionRequest) (*SyncResult, error) {
	if _, err := dateutil.ParseKey(req.Date, s.loc); err != nil {
		return nil, ErrInvalidDate
	}
	if _, err := s.repo.GetPatternByID(ctx, patternID); err != nil {
		return nil, err
	}

	ex := &RecurringException{
		PatternID: patternID,
		Date:      req.Date,
		Reason:    req.Reason,
	}
	if err := s.repo.AddException(ctx, ex); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateException
		}
		return nil, err
	}
	return s.sync.Sync(ctx, patternID, nil)
}

// RemoveException re-includes a date; the resync regenerates its row when
// the rule still covers it.
func (s *Service) RemoveException(ctx context.Context, patternID uint, date string) (*SyncResult, error) {
	if _, err := dateutil.ParseKey(date, s.loc); err != nil {
		return nil, ErrInvalidDate
	}
	if err := s.repo.RemoveException(ctx, patternID, date); err != nil {
		return nil, err
	}
	return s.sync.Sync(ctx, patternID, nil)
}

// ============================
// helpers

func (s *Service) parseTimes(dateKey, startClock, endClock string) (time.Time, time.Time, error) {
	day, err := dateutil.ParseKey(dateKey, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	start, err := dateutil.Combine(day, startClock, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidTime
	}
	end, err := dateutil.Combine(day, endClock, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidTime
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1) // overnight class
	}
	return start, end, nil
}

func (s *Service) buildPattern(req *CreateEventRequest, templateStart time.Time) (*RecurrencePattern, error) {
	rec := req.Recurrence
	if !validPatternType(rec.PatternType) {
		return nil, ErrInvalidPatternType
	}

	pattern := &RecurrencePattern{
		PatternType:           rec.PatternType,
		Interval:              rec.Interval,
		DaysOfWeek:            FormatWeekdays(rec.DaysOfWeek),
		StartsOn:              dateutil.Midnight(templateStart, s.loc),
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		IsActive:              true,
		GenerationHorizonDays: rec.GenerationHorizonDays,
		Title:                 req.Title,
		ClassType:             req.ClassType,
		Instructor:            req.Instructor,
		Capacity:              req.Capacity,
	}
	if pattern.Interval < 1 {
		pattern.Interval = 1
	}
	if rec.EndDate != "" {
		end, err := dateutil.ParseKey(rec.EndDate, s.loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
		pattern.EndDate = &end
	}
	return pattern, nil
}

func validPatternType(t string) bool {
	return t == "daily" || t == "weekly" || t == "monthly"
}

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
