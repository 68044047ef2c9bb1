package classes

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/calicantus/studio-cms-backend/internal/dateutil"
)

// BookingSource answers which events hold live bookings. Implemented by the
// booking repository; kept as an interface here so the synchronizer never
// reaches into booking tables directly.
type BookingSource interface {
	BookedEventIDs(ctx context.Context, eventIDs []uint) (map[uint]bool, error)
}

// SyncOptions overrides the materialization window for one run. Zero values
// fall back to the pattern's own horizon and no past regeneration.
type SyncOptions struct {
	FutureDays int
	PastDays   int
}

type SyncResult struct {
	Generated       int `json:"generated"`
	DeletedUnbooked int `json:"deleted_unbooked"`
	PreservedBooked int `json:"preserved_booked"`
}

// Synchronizer reconciles the materialized rows of a recurring series with
// its pattern. Sync is idempotent: running it twice in a row produces no
// additional writes. Runs for the same pattern are serialized with a
// per-pattern mutex so an admin save and the nightly job cannot interleave.
type Synchronizer struct {
	repo           Repository
	bookings       BookingSource
	loc            *time.Location
	defaultHorizon int

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewSynchronizer(repo Repository, bookings BookingSource, loc *time.Location, defaultHorizon int) *Synchronizer {
	if defaultHorizon <= 0 {
		defaultHorizon = 90
	}
	return &Synchronizer{
		repo:           repo,
		bookings:       bookings,
		loc:            loc,
		defaultHorizon: defaultHorizon,
		locks:          make(map[uint]*sync.Mutex),
	}
}

func (s *Synchronizer) lockFor(patternID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[patternID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[patternID] = lock
	}
	return lock
}

// Sync brings a pattern's materialized rows in line with its rule.
//
// The run converges: an unbooked future generated row survives when its
// date is still desired and its content still mirrors the template, so a
// second run against unchanged state writes nothing and row IDs stay
// stable for anyone holding one. Stale unbooked rows are deleted, rows
// with bookings are stamped preserved and left exactly as they are, and
// past rows are never touched. Missing dates inside the window are
// inserted from the template in ascending date order.
func (s *Synchronizer) Sync(ctx context.Context, patternID uint, opts *SyncOptions) (*SyncResult, error) {
	lock := s.lockFor(patternID)
	lock.Lock()
	defer lock.Unlock()

	pattern, err := s.repo.GetPatternByID(ctx, patternID)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.repo.ListExceptionDates(ctx, patternID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListEventsByPatternID(ctx, patternID)
	if err != nil {
		return nil, err
	}

	tmpl := SelectTemplate(rows)
	result := &SyncResult{}
	now := time.Now().In(s.loc)

	// Desired dates for the window. Inactive patterns desire nothing, so a
	// deactivated series sheds its unbooked future rows and generates none.
	horizon := pattern.GenerationHorizonDays
	if opts != nil && opts.FutureDays > 0 {
		horizon = opts.FutureDays
	}
	if horizon <= 0 {
		horizon = s.defaultHorizon
	}
	past := 0
	if opts != nil && opts.PastDays > 0 {
		past = opts.PastDays
	}

	today := dateutil.Midnight(now, s.loc)
	from := dateutil.AddDays(today, -past)
	to := dateutil.AddDays(today, horizon)

	desired := make(map[string]bool)
	if pattern.IsActive && tmpl != nil {
		rule := newRuleSpec(pattern, tmpl.StartTime, s.loc)
		for _, day := range candidateDates(rule, from, to, s.loc) {
			key := dateutil.KeyOf(day, s.loc)
			if !exceptions[key] {
				desired[key] = true
			}
		}
	}

	// Partition future generated rows by booking state. The template row is
	// never generated, so it is never deleted here.
	var futureGenerated []ClassEvent
	var futureIDs []uint
	for _, ev := range rows {
		if ev.IsRecurringGenerated && !ev.StartTime.Before(now) {
			futureGenerated = append(futureGenerated, ev)
			futureIDs = append(futureIDs, ev.ID)
		}
	}

	booked := map[uint]bool{}
	if len(futureIDs) > 0 {
		booked, err = s.bookings.BookedEventIDs(ctx, futureIDs)
		if err != nil {
			return nil, fmt.Errorf("check bookings for pattern %d: %w", patternID, err)
		}
	}

	// Unbooked rows that are still wanted and still in shape are left
	// alone. Everything stale is deleted; a duplicate row on an already
	// kept date counts as stale.
	deleted := make(map[uint]bool)
	kept := make(map[string]bool)
	for _, ev := range futureGenerated {
		if booked[ev.ID] {
			if err := s.repo.MarkEventPreserved(ctx, ev.ID); err != nil {
				return nil, err
			}
			result.PreservedBooked++
			continue
		}
		key := eventDateKey(ev, s.loc)
		if desired[key] && !kept[key] && s.rowMatchesTemplate(pattern, tmpl, ev, key) {
			kept[key] = true
			continue
		}
		if err := s.repo.DeleteEvent(ctx, ev.ID); err != nil {
			return nil, err
		}
		deleted[ev.ID] = true
		result.DeletedUnbooked++
	}

	// Dates already covered by surviving rows (template and preserved rows
	// included) are not regenerated, so a booked occurrence never gets a
	// duplicate sibling.
	covered := make(map[string]bool)
	for _, ev := range rows {
		if deleted[ev.ID] {
			continue
		}
		covered[eventDateKey(ev, s.loc)] = true
	}

	missing := make([]string, 0, len(desired))
	for key := range desired {
		if !covered[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)

	for _, key := range missing {
		ev, err := s.buildOccurrenceRow(pattern, tmpl, key)
		if err != nil {
			return nil, err
		}
		if err := s.repo.CreateEvent(ctx, ev); err != nil {
			return nil, err
		}
		result.Generated++
	}

	// Mirror template drift onto the pattern and stamp the run.
	if tmpl != nil {
		pattern.Title = tmpl.Title
		pattern.ClassType = tmpl.ClassType
		pattern.Instructor = tmpl.Instructor
		pattern.Capacity = tmpl.Capacity
		pattern.StartTime = tmpl.StartTime.In(s.loc).Format("15:04")
		pattern.EndTime = tmpl.EndTime.In(s.loc).Format("15:04")
	}
	stamp := time.Now()
	pattern.LastMaterializedAt = &stamp
	if err := s.repo.UpdatePattern(ctx, pattern); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Synchronizer) buildOccurrenceRow(pattern *RecurrencePattern, tmpl *ClassEvent, key string) (*ClassEvent, error) {
	day, err := dateutil.ParseKey(key, s.loc)
	if err != nil {
		return nil, err
	}

	startClock := pattern.StartTime
	endClock := pattern.EndTime
	title := pattern.Title
	classType := pattern.ClassType
	instructor := pattern.Instructor
	capacity := pattern.Capacity
	description, location := "", ""
	var createdBy uint

	if tmpl != nil {
		startClock = tmpl.StartTime.In(s.loc).Format("15:04")
		endClock = tmpl.EndTime.In(s.loc).Format("15:04")
		title = tmpl.Title
		classType = tmpl.ClassType
		instructor = tmpl.Instructor
		capacity = tmpl.Capacity
		description = tmpl.Description
		location = tmpl.Location
		createdBy = tmpl.CreatedBy
	}

	start, err := dateutil.Combine(day, startClock, s.loc)
	if err != nil {
		return nil, fmt.Errorf("pattern %d start time: %w", pattern.ID, err)
	}
	end, err := dateutil.Combine(day, endClock, s.loc)
	if err != nil {
		return nil, fmt.Errorf("pattern %d end time: %w", pattern.ID, err)
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1) // overnight class
	}

	patternID := pattern.ID
	return &ClassEvent{
		Title:                title,
		Description:          description,
		ClassType:            classType,
		Instructor:           instructor,
		Capacity:             capacity,
		Location:             location,
		StartTime:            start,
		EndTime:              end,
		RecurringPatternID:   &patternID,
		RecurringSeriesID:    &patternID,
		IsRecurringGenerated: true,
		OccurrenceDate:       key,
		IsActive:             true,
		CreatedBy:            createdBy,
	}, nil
}

// rowMatchesTemplate reports whether a materialized row still carries what
// generation would produce for its date. Sync leaves matching rows in place
// instead of rewriting them.
func (s *Synchronizer) rowMatchesTemplate(pattern *RecurrencePattern, tmpl *ClassEvent, ev ClassEvent, key string) bool {
	want, err := s.buildOccurrenceRow(pattern, tmpl, key)
	if err != nil {
		return false
	}
	return ev.StartTime.Equal(want.StartTime) &&
		ev.EndTime.Equal(want.EndTime) &&
		ev.Title == want.Title &&
		ev.ClassType == want.ClassType &&
		ev.Instructor == want.Instructor &&
		ev.Capacity == want.Capacity &&
		ev.Description == want.Description &&
		ev.Location == want.Location
}

// DeletePatternSafely removes a series without stranding its customers:
// unbooked future generated rows are deleted, booked rows are detached and
// kept as standalone events, the template stays as a plain one-off, and the
// pattern and its exceptions go away.
func (s *Synchronizer) DeletePatternSafely(ctx context.Context, patternID uint) (*SyncResult, error) {
	lock := s.lockFor(patternID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.repo.GetPatternByID(ctx, patternID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListEventsByPatternID(ctx, patternID)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	now := time.Now().In(s.loc)

	var futureGeneratedIDs []uint
	for _, ev := range rows {
		if ev.IsRecurringGenerated && !ev.StartTime.Before(now) {
			futureGeneratedIDs = append(futureGeneratedIDs, ev.ID)
		}
	}
	booked := map[uint]bool{}
	if len(futureGeneratedIDs) > 0 {
		booked, err = s.bookings.BookedEventIDs(ctx, futureGeneratedIDs)
		if err != nil {
			return nil, fmt.Errorf("check bookings for pattern %d: %w", patternID, err)
		}
	}

	for _, ev := range rows {
		futureGenerated := ev.IsRecurringGenerated && !ev.StartTime.Before(now)
		if futureGenerated && !booked[ev.ID] {
			if err := s.repo.DeleteEvent(ctx, ev.ID); err != nil {
				return nil, err
			}
			result.DeletedUnbooked++
			continue
		}
		// Everything else survives detached: the template, past rows, and
		// booked future rows. Booked rows keep the preserved stamp.
		if err := s.repo.DetachEvent(ctx, ev.ID, booked[ev.ID]); err != nil {
			return nil, err
		}
		if booked[ev.ID] {
			result.PreservedBooked++
		}
	}

	if err := s.repo.DeleteExceptionsByPattern(ctx, patternID); err != nil {
		return nil, err
	}
	if err := s.repo.DeletePattern(ctx, patternID); err != nil {
		return nil, err
	}

	// The pattern is gone; its lock entry goes with it.
	s.mu.Lock()
	delete(s.locks, patternID)
	s.mu.Unlock()

	return result, nil
}

// SyncAll reconciles every active pattern sequentially. One broken pattern
// is logged and skipped rather than failing the whole run. Used by the
// nightly job and the admin resync endpoint.
func (s *Synchronizer) SyncAll(ctx context.Context) (*SyncResult, error) {
	ids, err := s.repo.ListActivePatternIDs(ctx)
	if err != nil {
		return nil, err
	}

	total := &SyncResult{}
	for _, id := range ids {
		res, err := s.Sync(ctx, id, nil)
		if err != nil {
			log.Printf("⚠️ Sync failed for pattern %d: %v", id, err)
			continue
		}
		total.Generated += res.Generated
		total.DeletedUnbooked += res.DeletedUnbooked
		total.PreservedBooked += res.PreservedBooked
	}
	return total, nil
}

// eventDateKey is the local date identity of a materialized row. Generated
// rows carry it in occurrence_date; older rows fall back to the local day of
// their start time.
func eventDateKey(ev ClassEvent, loc *time.Location) string {
	if ev.OccurrenceDate != "" {
		return ev.OccurrenceDate
	}
	return dateutil.KeyOf(ev.StartTime, loc)
}
