package booking

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/calicantus/studio-cms-backend/internal/classes"
)

type fakeRepo struct {
	mu       sync.Mutex
	nextID   uint
	bookings map[uint]*Booking
	events   map[uint]*classes.ClassEvent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:   1,
		bookings: make(map[uint]*Booking),
		events:   make(map[uint]*classes.ClassEvent),
	}
}

func (f *fakeRepo) Create(_ context.Context, b *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.nextID
	f.nextID++
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeRepo) Update(_ context.Context, b *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[b.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uint) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeRepo) FindActive(_ context.Context, userID, eventID uint) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.UserID == userID && b.EventID == eventID && b.Status != StatusCancelled {
			cp := *b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) CountByStatus(_ context.Context, eventID uint, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.bookings {
		if b.EventID == eventID && b.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) EarliestWaitlisted(_ context.Context, eventID uint) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var waiting []*Booking
	for _, b := range f.bookings {
		if b.EventID == eventID && b.Status == StatusWaitlist {
			waiting = append(waiting, b)
		}
	}
	if len(waiting) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(waiting, func(i, j int) bool {
		if waiting[i].CreatedAt.Equal(waiting[j].CreatedAt) {
			return waiting[i].ID < waiting[j].ID
		}
		return waiting[i].CreatedAt.Before(waiting[j].CreatedAt)
	})
	cp := *waiting[0]
	return &cp, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID uint) ([]BookingWithEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []BookingWithEvent
	for _, b := range f.bookings {
		if b.UserID != userID || b.Status == StatusCancelled {
			continue
		}
		ev := f.events[b.EventID]
		rows = append(rows, BookingWithEvent{
			ID:        b.ID,
			EventID:   b.EventID,
			Status:    b.Status,
			Title:     ev.Title,
			StartTime: ev.StartTime,
			EndTime:   ev.EndTime,
			CreatedAt: b.CreatedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartTime.Before(rows[j].StartTime) })
	return rows, nil
}

func (f *fakeRepo) ListByEvent(_ context.Context, eventID uint) ([]BookingWithUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []BookingWithUser
	for _, b := range f.bookings {
		if b.EventID == eventID && b.Status != StatusCancelled {
			rows = append(rows, BookingWithUser{ID: b.ID, UserID: b.UserID, Status: b.Status, CreatedAt: b.CreatedAt})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (f *fakeRepo) BookedEventIDs(_ context.Context, eventIDs []uint) (map[uint]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[uint]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}
	booked := make(map[uint]bool)
	for _, b := range f.bookings {
		if want[b.EventID] && (b.Status == StatusConfirmed || b.Status == StatusWaitlist) {
			booked[b.EventID] = true
		}
	}
	return booked, nil
}

func (f *fakeRepo) GetEvent(_ context.Context, eventID uint) (*classes.ClassEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[eventID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeRepo) GetUserContact(_ context.Context, userID uint) (string, string, error) {
	return "Member", "", nil // no email configured in tests
}

func (f *fakeRepo) addEvent(id uint, capacity int, start time.Time) {
	f.events[id] = &classes.ClassEvent{
		ID:        id,
		Title:     "Vinyasa Flow",
		Capacity:  capacity,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		IsActive:  true,
	}
}

func newTestService(f *fakeRepo) Service {
	return NewService(f, time.UTC)
}

func TestBookClassConfirmsWithinCapacity(t *testing.T) {
	f := newFakeRepo()
	f.addEvent(1, 2, time.Now().Add(24*time.Hour))
	svc := newTestService(f)
	ctx := context.Background()

	b, err := svc.BookClass(ctx, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
}

func TestBookClassWaitlistsWhenFull(t *testing.T) {
	f := newFakeRepo()
	f.addEvent(1, 1, time.Now().Add(24*time.Hour))
	svc := newTestService(f)
	ctx := context.Background()

	first, err := svc.BookClass(ctx, 100, 1)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, first.Status)

	second, err := svc.BookClass(ctx, 101, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitlist, second.Status)
}

func TestBookClassZeroCapacityIsUnlimited(t *testing.T) {
	f := newFakeRepo()
	f.addEvent(1, 0, time.Now().Add(24*time.Hour))
	svc := newTestService(f)
	ctx := context.Background()

	for userID := uint(100); userID < 120; userID++ {
		b, err := svc.BookClass(ctx, userID, 1)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, b.Status)
	}
}

func TestBookClassRejectsDoubleBooking(t *testing.T) {
	f := newFakeRepo()
	f.addEvent(1, 5, time.Now().Add(24*time.Hour))
	svc := newTestService(f)
	ctx := context.Background()

	_, err := svc.BookClass(ctx, 100, 1)
	require.NoError(t, err)

	_, err = svc.BookClass(ctx, 100, 1)
	assert.ErrorIs(t, err, ErrAlreadyBooked)
}

func TestBookClassRejectsPastEvents(t *testing.T) {
	f := newFakeRepo()
	f.addEvent(1, 5, time.Now().Add(-time.Hour))
	svc := newTestService(f)

	_, err := svc.BookClass(context.Background(), 100, 1)
	assert.ErrorIs(t, err, ErrEventStarted)
}

func TestCancelPromotesEarliestWaitlisted(t *testing.T) {
	f := newFakeRepo()
	f.addEvent(1, 1, time.Now().Add(24*time.Hour))
	svc := newTestService(f)
	ctx := context.Background()

	confirmed, err := svc.BookClass(ctx, 100, 1)
	require.NoError(t, err)

	// Two members queue up behind the single spot.
	w1, err := svc.BookClass(ctx, 101, 1)
	require.NoError(t, err)
	require.Equal(t, StatusWaitlist, w1.Status)
	// Ensure a strictly later timestamp for the second waitlister.
	f.mu.Lock()
	f.bookings[w1.ID].CreatedAt = time.Now().Add(-time.Minute)
	f.mu.Unlock()
	w2, err := svc.BookClass(ctx, 102, 1)
	require.NoError(t, err)
	require.Equal(t, StatusWaitlist, w2.Status)

	_, err = svc.CancelBooking(ctx, 100, confirmed.ID, false)
	require.NoError(t, err)

	promoted, err := f.GetByID(ctx, w1.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, promoted.Status)

	stillWaiting, err := f.GetByID(ctx, w2.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitlist, stillWaiting.Status)
}

func TestCancelWaitlistedDoesNotPromote(t *testing.T) {
	f := newFakeRepo()
	f.addEvent(1, 1, time.Now().Add(24*time.Hour))
	svc := newTestService(f)
	ctx := context.Background()

	_, err := svc.BookClass(ctx, 100, 1)
	require.NoError(t, err)
	w1, err := svc.BookClass(ctx, 101, 1)
	require.NoError(t, err)
	w2, err := svc.BookClass(ctx, 102, 1)
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, 101, w1.ID, false)
	require.NoError(t, err)

	other, err := f.GetByID(ctx, w2.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitlist, other.Status, "cancelling a waitlist spot frees no confirmed seat")
}

func TestCancelEnforcesOwnership(t *testing.T) {
	f := newFakeRepo()
	f.addEvent(1, 5, time.Now().Add(24*time.Hour))
	svc := newTestService(f)
	ctx := context.Background()

	b, err := svc.BookClass(ctx, 100, 1)
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, 999, b.ID, false)
	assert.ErrorIs(t, err, ErrNotYourBooking)

	// Staff may cancel on behalf of members.
	_, err = svc.CancelBooking(ctx, 999, b.ID, true)
	assert.NoError(t, err)
}

func TestBookedEventIDsCoversWaitlist(t *testing.T) {
	f := newFakeRepo()
	f.addEvent(1, 1, time.Now().Add(24*time.Hour))
	f.addEvent(2, 1, time.Now().Add(48*time.Hour))
	svc := newTestService(f)
	ctx := context.Background()

	_, err := svc.BookClass(ctx, 100, 1)
	require.NoError(t, err)
	w, err := svc.BookClass(ctx, 101, 1)
	require.NoError(t, err)
	require.Equal(t, StatusWaitlist, w.Status)

	booked, err := svc.BookedEventIDs(ctx, []uint{1, 2})
	require.NoError(t, err)
	assert.True(t, booked[1])
	assert.False(t, booked[2])

	// Cancelling every booking releases the event.
	rows, err := f.ListByEvent(ctx, 1)
	require.NoError(t, err)
	for _, r := range rows {
		_, err := svc.CancelBooking(ctx, r.UserID, r.ID, false)
		require.NoError(t, err)
	}
	booked, err = svc.BookedEventIDs(ctx, []uint{1, 2})
	require.NoError(t, err)
	assert.False(t, booked[1])
}
