package booking

import (
	"context"

	"gorm.io/gorm"

	"github.com/calicantus/studio-cms-backend/internal/classes"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uint) (*Booking, error)
	FindActive(ctx context.Context, userID, eventID uint) (*Booking, error)
	CountByStatus(ctx context.Context, eventID uint, status string) (int64, error)
	EarliestWaitlisted(ctx context.Context, eventID uint) (*Booking, error)

	ListByUser(ctx context.Context, userID uint) ([]BookingWithEvent, error)
	ListByEvent(ctx context.Context, eventID uint) ([]BookingWithUser, error)
	BookedEventIDs(ctx context.Context, eventIDs []uint) (map[uint]bool, error)

	GetEvent(ctx context.Context, eventID uint) (*classes.ClassEvent, error)
	GetUserContact(ctx context.Context, userID uint) (name string, email string, err error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *Booking) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) Update(ctx context.Context, b *Booking) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Booking, error) {
	var b Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// FindActive returns the user's non-cancelled booking for an event, if any.
func (r *repository) FindActive(ctx context.Context, userID, eventID uint) (*Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ? AND status <> ?", userID, eventID, StatusCancelled).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) CountByStatus(ctx context.Context, eventID uint, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&count).Error
	return count, err
}

// EarliestWaitlisted returns the oldest waitlisted booking for an event.
func (r *repository) EarliestWaitlisted(ctx context.Context, eventID uint) (*Booking, error) {
	var b Booking
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, StatusWaitlist).
		Order("created_at ASC").
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]BookingWithEvent, error) {
	var rows []BookingWithEvent
	err := r.db.WithContext(ctx).
		Table("bookings b").
		Select(`
			b.id, b.event_id, b.status, b.created_at,
			e.title, e.class_type, e.instructor, e.location,
			e.start_time, e.end_time
		`).
		Joins("JOIN class_events e ON b.event_id = e.id").
		Where("b.user_id = ? AND b.status <> ?", userID, StatusCancelled).
		Order("e.start_time ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByEvent(ctx context.Context, eventID uint) ([]BookingWithUser, error) {
	var rows []BookingWithUser
	err := r.db.WithContext(ctx).
		Table("bookings b").
		Select(`
			b.id, b.user_id, b.status, b.created_at,
			u.full_name, u.email
		`).
		Joins("JOIN users u ON b.user_id = u.id").
		Where("b.event_id = ? AND b.status <> ?", eventID, StatusCancelled).
		Order("b.created_at ASC").
		Find(&rows).Error
	return rows, err
}

// BookedEventIDs reports which of the given events carry at least one
// active booking. Waitlisted spots count: those members expect the
// occurrence to stay on the calendar.
func (r *repository) BookedEventIDs(ctx context.Context, eventIDs []uint) (map[uint]bool, error) {
	booked := make(map[uint]bool)
	if len(eventIDs) == 0 {
		return booked, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Distinct("event_id").
		Where("event_id IN ? AND status IN ?", eventIDs, []string{StatusConfirmed, StatusWaitlist}).
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		booked[id] = true
	}
	return booked, nil
}

func (r *repository) GetEvent(ctx context.Context, eventID uint) (*classes.ClassEvent, error) {
	var ev classes.ClassEvent
	if err := r.db.WithContext(ctx).First(&ev, eventID).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *repository) GetUserContact(ctx context.Context, userID uint) (string, string, error) {
	var row struct {
		FullName string
		Email    string
	}
	err := r.db.WithContext(ctx).
		Table("users").
		Select("full_name, email").
		Where("id = ?", userID).
		First(&row).Error
	if err != nil {
		return "", "", err
	}
	return row.FullName, row.Email, nil
}
