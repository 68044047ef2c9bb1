package classes

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/calicantus/studio-cms-backend/internal/dateutil"
)

// ============================
// in-memory fakes

type fakeRepo struct {
	mu            sync.Mutex
	patterns      map[uint]*RecurrencePattern
	events        map[uint]*ClassEvent
	exceptions    map[uint]map[string]string
	nextPatternID uint
	nextEventID   uint
	insertedDates []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		patterns:   make(map[uint]*RecurrencePattern),
		events:     make(map[uint]*ClassEvent),
		exceptions: make(map[uint]map[string]string),
	}
}

func (f *fakeRepo) GetPatternByID(_ context.Context, id uint) (*RecurrencePattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patterns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) ListActivePatternIDs(_ context.Context) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for id, p := range f.patterns {
		if p.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeRepo) CreatePattern(_ context.Context, p *RecurrencePattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextPatternID++
	p.ID = f.nextPatternID
	cp := *p
	f.patterns[p.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdatePattern(_ context.Context, p *RecurrencePattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.patterns[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	f.patterns[p.ID] = &cp
	return nil
}

func (f *fakeRepo) DeletePattern(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.patterns, id)
	return nil
}

func (f *fakeRepo) ListExceptions(_ context.Context, patternID uint) ([]RecurringException, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RecurringException
	for date, reason := range f.exceptions[patternID] {
		out = append(out, RecurringException{PatternID: patternID, Date: date, Reason: reason})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *fakeRepo) ListExceptionDates(ctx context.Context, patternID uint) (map[string]bool, error) {
	rows, err := f.ListExceptions(ctx, patternID)
	if err != nil {
		return nil, err
	}
	dates := make(map[string]bool, len(rows))
	for _, ex := range rows {
		dates[ex.Date] = true
	}
	return dates, nil
}

func (f *fakeRepo) AddException(_ context.Context, ex *RecurringException) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.exceptions[ex.PatternID][ex.Date]; dup {
		return &pgconn.PgError{Code: "23505"}
	}
	if f.exceptions[ex.PatternID] == nil {
		f.exceptions[ex.PatternID] = make(map[string]string)
	}
	f.exceptions[ex.PatternID][ex.Date] = ex.Reason
	return nil
}

func (f *fakeRepo) RemoveException(_ context.Context, patternID uint, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.exceptions[patternID], date)
	return nil
}

func (f *fakeRepo) DeleteExceptionsByPattern(_ context.Context, patternID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.exceptions, patternID)
	return nil
}

func (f *fakeRepo) GetEventByID(_ context.Context, id uint) (*ClassEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f.withPattern(ev), nil
}

func (f *fakeRepo) ListEventsByPatternID(_ context.Context, patternID uint) ([]ClassEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ClassEvent
	for _, ev := range f.events {
		if ev.RecurringPatternID != nil && *ev.RecurringPatternID == patternID {
			out = append(out, *f.withPattern(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeRepo) ListEventsInRange(_ context.Context, from, to time.Time) ([]ClassEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ClassEvent
	for _, ev := range f.events {
		if ev.IsActive && !ev.StartTime.Before(from) && ev.StartTime.Before(to) {
			out = append(out, *f.withPattern(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeRepo) ListTemplatesForActivePatterns(_ context.Context) ([]ClassEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ClassEvent
	for _, ev := range f.events {
		if ev.RecurringPatternID == nil || ev.IsRecurringGenerated {
			continue
		}
		if p, ok := f.patterns[*ev.RecurringPatternID]; ok && p.IsActive {
			out = append(out, *f.withPattern(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeRepo) CreateEvent(_ context.Context, ev *ClassEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextEventID++
	ev.ID = f.nextEventID
	cp := *ev
	f.events[ev.ID] = &cp
	if ev.IsRecurringGenerated {
		f.insertedDates = append(f.insertedDates, ev.OccurrenceDate)
	}
	return nil
}

func (f *fakeRepo) UpdateEvent(_ context.Context, ev *ClassEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[ev.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *ev
	cp.Pattern = nil
	f.events[ev.ID] = &cp
	return nil
}

func (f *fakeRepo) DeleteEvent(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, id)
	return nil
}

func (f *fakeRepo) MarkEventPreserved(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ev.IsRecurringPreserved = true
	return nil
}

func (f *fakeRepo) DetachEvent(_ context.Context, id uint, preserved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ev.RecurringPatternID = nil
	if preserved {
		ev.IsRecurringPreserved = true
	}
	return nil
}

// withPattern mimics the repository's Preload("Pattern") normalization.
// Callers hold f.mu.
func (f *fakeRepo) withPattern(ev *ClassEvent) *ClassEvent {
	cp := *ev
	if cp.RecurringPatternID != nil {
		if p, ok := f.patterns[*cp.RecurringPatternID]; ok {
			pc := *p
			cp.Pattern = &pc
		}
	}
	return &cp
}

type fakeBookings struct {
	booked map[uint]bool
}

func (f *fakeBookings) BookedEventIDs(_ context.Context, ids []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	for _, id := range ids {
		if f.booked[id] {
			out[id] = true
		}
	}
	return out, nil
}

// ============================
// fixture

type syncFixture struct {
	repo     *fakeRepo
	bookings *fakeBookings
	sync     *Synchronizer
	svc      *Service
	loc      *time.Location
	pattern  *RecurrencePattern
	template *ClassEvent
	today    time.Time
}

// newSyncFixture builds a daily noon class anchored today with a 7-day
// horizon, so the first sync should materialize the next 7 days.
func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	loc := testLoc(t)
	repo := newFakeRepo()
	bookings := &fakeBookings{booked: make(map[uint]bool)}
	syn := NewSynchronizer(repo, bookings, loc, 90)

	ctx := context.Background()
	today := dateutil.Midnight(time.Now().In(loc), loc)

	pattern := &RecurrencePattern{
		PatternType:           "daily",
		Interval:              1,
		StartsOn:              today,
		StartTime:             "12:00",
		EndTime:               "13:00",
		IsActive:              true,
		GenerationHorizonDays: 7,
	}
	require.NoError(t, repo.CreatePattern(ctx, pattern))

	start, err := dateutil.Combine(today, "12:00", loc)
	require.NoError(t, err)
	template := &ClassEvent{
		Title:              "Evening Flow",
		Instructor:         "Dana",
		Capacity:           12,
		StartTime:          start,
		EndTime:            start.Add(time.Hour),
		RecurringPatternID: &pattern.ID,
		RecurringSeriesID:  &pattern.ID,
		IsActive:           true,
	}
	require.NoError(t, repo.CreateEvent(ctx, template))

	return &syncFixture{
		repo:     repo,
		bookings: bookings,
		sync:     syn,
		svc:      NewService(repo, syn, loc),
		loc:      loc,
		pattern:  pattern,
		template: template,
		today:    today,
	}
}

// generatedByDate snapshots the generated rows of the fixture pattern.
func (f *syncFixture) generatedByDate(t *testing.T) map[string]ClassEvent {
	t.Helper()
	rows, err := f.repo.ListEventsByPatternID(context.Background(), f.pattern.ID)
	require.NoError(t, err)
	out := make(map[string]ClassEvent)
	for _, ev := range rows {
		if ev.IsRecurringGenerated {
			out[ev.OccurrenceDate] = ev
		}
	}
	return out
}

func (f *syncFixture) dayKey(offset int) string {
	return dateutil.KeyOf(dateutil.AddDays(f.today, offset), f.loc)
}

// ============================
// tests

func TestSyncMaterializesHorizon(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	res, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Generated)
	assert.Equal(t, 0, res.DeletedUnbooked)

	generated := f.generatedByDate(t)
	require.Len(t, generated, 7)
	for offset := 1; offset <= 7; offset++ {
		ev, ok := generated[f.dayKey(offset)]
		require.True(t, ok, "missing occurrence for day +%d", offset)
		assert.True(t, ev.IsRecurringGenerated)
		assert.Equal(t, f.pattern.ID, *ev.RecurringPatternID)
		assert.Equal(t, f.pattern.ID, *ev.RecurringSeriesID)
		assert.Equal(t, "Evening Flow", ev.Title)
		assert.Equal(t, 12, ev.StartTime.In(f.loc).Hour())
	}

	// Insertion order is ascending by date, so retries after a mid-run
	// failure resume deterministically.
	assert.True(t, sort.StringsAreSorted(f.repo.insertedDates))

	pattern, err := f.repo.GetPatternByID(ctx, f.pattern.ID)
	require.NoError(t, err)
	assert.NotNil(t, pattern.LastMaterializedAt)
	assert.Equal(t, "Evening Flow", pattern.Title)
	assert.Equal(t, "12:00", pattern.StartTime)
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)
	first := f.generatedByDate(t)

	res, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)

	// Second run against unchanged state writes nothing.
	assert.Equal(t, 0, res.Generated)
	assert.Equal(t, 0, res.DeletedUnbooked)

	second := f.generatedByDate(t)
	require.Len(t, second, len(first))
	for date, ev := range first {
		got, ok := second[date]
		require.True(t, ok, "date %s lost on resync", date)
		// A member holding an occurrence id must keep it across resyncs.
		assert.Equal(t, ev.ID, got.ID, "row id for %s churned on resync", date)
	}
}

func TestSyncSkipsExceptionDates(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	skipped := f.dayKey(3)
	require.NoError(t, f.repo.AddException(ctx, &RecurringException{
		PatternID: f.pattern.ID,
		Date:      skipped,
		Reason:    "studio closed",
	}))

	res, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Generated)

	generated := f.generatedByDate(t)
	_, ok := generated[skipped]
	assert.False(t, ok, "excluded date %s was materialized", skipped)
}

func TestSyncPreservesBookedRowsAcrossTemplateEdit(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)

	bookedDate := f.dayKey(2)
	bookedRow := f.generatedByDate(t)[bookedDate]
	require.NotZero(t, bookedRow.ID)
	f.bookings.booked[bookedRow.ID] = true

	// Move the class an hour earlier via its template.
	tmpl, err := f.repo.GetEventByID(ctx, f.template.ID)
	require.NoError(t, err)
	tmpl.Title = "Morning Flow"
	newStart, err := dateutil.Combine(f.today, "09:00", f.loc)
	require.NoError(t, err)
	tmpl.StartTime = newStart
	tmpl.EndTime = newStart.Add(time.Hour)
	require.NoError(t, f.repo.UpdateEvent(ctx, tmpl))

	res, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PreservedBooked)
	assert.Equal(t, 6, res.DeletedUnbooked)
	assert.Equal(t, 6, res.Generated)

	generated := f.generatedByDate(t)
	require.Len(t, generated, 7)

	kept := generated[bookedDate]
	assert.Equal(t, bookedRow.ID, kept.ID, "booked row must not be rewritten")
	assert.True(t, kept.StartTime.Equal(bookedRow.StartTime), "booked row keeps its original time")
	assert.True(t, kept.IsRecurringPreserved)

	for date, ev := range generated {
		if date == bookedDate {
			continue
		}
		assert.Equal(t, "Morning Flow", ev.Title)
		assert.Equal(t, 9, ev.StartTime.In(f.loc).Hour())
	}
}

func TestSyncInactivePatternShedsUnbookedRows(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)

	bookedRow := f.generatedByDate(t)[f.dayKey(5)]
	f.bookings.booked[bookedRow.ID] = true

	pattern, err := f.repo.GetPatternByID(ctx, f.pattern.ID)
	require.NoError(t, err)
	pattern.IsActive = false
	require.NoError(t, f.repo.UpdatePattern(ctx, pattern))

	res, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Generated)
	assert.Equal(t, 6, res.DeletedUnbooked)
	assert.Equal(t, 1, res.PreservedBooked)

	generated := f.generatedByDate(t)
	require.Len(t, generated, 1)
	_, ok := generated[f.dayKey(5)]
	assert.True(t, ok, "booked row must survive deactivation")
}

func TestDeletePatternSafely(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)

	bookedRow := f.generatedByDate(t)[f.dayKey(4)]
	f.bookings.booked[bookedRow.ID] = true

	res, err := f.sync.DeletePatternSafely(ctx, f.pattern.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, res.DeletedUnbooked)
	assert.Equal(t, 1, res.PreservedBooked)

	_, err = f.repo.GetPatternByID(ctx, f.pattern.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	survivor, err := f.repo.GetEventByID(ctx, bookedRow.ID)
	require.NoError(t, err)
	assert.Nil(t, survivor.RecurringPatternID, "booked row is detached")
	assert.True(t, survivor.IsRecurringPreserved)
	require.NotNil(t, survivor.RecurringSeriesID)
	assert.Equal(t, f.pattern.ID, *survivor.RecurringSeriesID)

	tmpl, err := f.repo.GetEventByID(ctx, f.template.ID)
	require.NoError(t, err)
	assert.Nil(t, tmpl.RecurringPatternID, "template survives as a one-off")

	// All other generated rows are gone.
	for id, ev := range f.repo.events {
		if ev.IsRecurringGenerated && id != bookedRow.ID {
			t.Errorf("unbooked generated row %d survived deletion", id)
		}
	}

	// The per-pattern lock entry is released with the pattern.
	f.sync.mu.Lock()
	_, held := f.sync.locks[f.pattern.ID]
	f.sync.mu.Unlock()
	assert.False(t, held, "deleted pattern still holds a lock entry")
}

func TestServiceAddExceptionRejectsDuplicates(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	req := &ExceptionRequest{Date: f.dayKey(3), Reason: "holiday"}
	_, err := f.svc.AddException(ctx, f.pattern.ID, req)
	require.NoError(t, err)

	_, err = f.svc.AddException(ctx, f.pattern.ID, req)
	assert.ErrorIs(t, err, ErrDuplicateException)
}

func TestServiceDeleteOccurrenceRecordsException(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)

	target := f.generatedByDate(t)[f.dayKey(2)]
	_, err = f.svc.DeleteEvent(ctx, target.ID)
	require.NoError(t, err)

	dates, err := f.repo.ListExceptionDates(ctx, f.pattern.ID)
	require.NoError(t, err)
	assert.True(t, dates[f.dayKey(2)], "deleting an occurrence must record its date as an exception")

	// The next sync must not resurrect it.
	_, err = f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)
	_, ok := f.generatedByDate(t)[f.dayKey(2)]
	assert.False(t, ok)
}

func TestServiceCalendarExpandsSeries(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	_, err := f.sync.Sync(ctx, f.pattern.ID, nil)
	require.NoError(t, err)

	occs, err := f.svc.GetCalendar(ctx, f.dayKey(0), f.dayKey(7))
	require.NoError(t, err)

	// One occurrence per day, synthesized from the template; materialized
	// rows are collapsed into the series rather than listed alongside it.
	require.Len(t, occs, 8)
	for i, o := range occs {
		assert.Equal(t, f.dayKey(i), o.Date)
		assert.True(t, o.IsRecurring)
		assert.Equal(t, f.template.ID, o.EventID)
	}
}
