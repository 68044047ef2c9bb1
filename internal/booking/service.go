package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/calicantus/studio-cms-backend/utils"
)

var (
	ErrEventNotFound   = errors.New("class not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrAlreadyBooked   = errors.New("you already have a booking for this class")
	ErrEventStarted    = errors.New("this class has already started")
	ErrNotYourBooking  = errors.New("booking belongs to another member")
	ErrAlreadyCanceled = errors.New("booking is already cancelled")
)

type Service interface {
	BookClass(ctx context.Context, userID, eventID uint) (*Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID uint, staff bool) (*Booking, error)
	MyBookings(ctx context.Context, userID uint) ([]BookingWithEvent, error)
	EventBookings(ctx context.Context, eventID uint) ([]BookingWithUser, error)

	// BookedEventIDs reports events with active bookings. The class
	// synchronizer uses it to decide which generated occurrences must
	// survive a regeneration.
	BookedEventIDs(ctx context.Context, eventIDs []uint) (map[uint]bool, error)
}

type service struct {
	repo Repository
	loc  *time.Location
}

func NewService(repo Repository, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc}
}

// BookClass places a booking on a class event. When the class is full the
// booking is waitlisted instead of confirmed. Capacity 0 means unlimited.
func (s *service) BookClass(ctx context.Context, userID, eventID uint) (*Booking, error) {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !ev.IsActive {
		return nil, ErrEventNotFound
	}
	if ev.StartTime.Before(time.Now()) {
		return nil, ErrEventStarted
	}

	if _, err := s.repo.FindActive(ctx, userID, eventID); err == nil {
		return nil, ErrAlreadyBooked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	status := StatusConfirmed
	if ev.Capacity > 0 {
		confirmed, err := s.repo.CountByStatus(ctx, eventID, StatusConfirmed)
		if err != nil {
			return nil, err
		}
		if confirmed >= int64(ev.Capacity) {
			status = StatusWaitlist
		}
	}

	b := &Booking{
		EventID: eventID,
		UserID:  userID,
		Status:  status,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	if status == StatusConfirmed {
		s.notifyConfirmed(ctx, userID, ev.Title, ev.StartTime)
	}

	return b, nil
}

// CancelBooking cancels a booking. Members can only cancel their own; staff
// can cancel any. Cancelling a confirmed spot promotes the earliest
// waitlisted member into it.
func (s *service) CancelBooking(ctx context.Context, userID, bookingID uint, staff bool) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !staff && b.UserID != userID {
		return nil, ErrNotYourBooking
	}
	if b.Status == StatusCancelled {
		return nil, ErrAlreadyCanceled
	}

	wasConfirmed := b.Status == StatusConfirmed
	now := time.Now()
	b.Status = StatusCancelled
	b.CancelledAt = &now
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	if wasConfirmed {
		if err := s.promoteWaitlist(ctx, b.EventID); err != nil {
			log.Printf("⚠️ Waitlist promotion failed for event %d: %v", b.EventID, err)
		}
	}

	return b, nil
}

func (s *service) promoteWaitlist(ctx context.Context, eventID uint) error {
	next, err := s.repo.EarliestWaitlisted(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // nobody waiting
		}
		return err
	}

	next.Status = StatusConfirmed
	if err := s.repo.Update(ctx, next); err != nil {
		return err
	}

	if ev, err := s.repo.GetEvent(ctx, eventID); err == nil {
		s.notifyPromoted(ctx, next.UserID, ev.Title, ev.StartTime)
	}
	return nil
}

func (s *service) MyBookings(ctx context.Context, userID uint) ([]BookingWithEvent, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) EventBookings(ctx context.Context, eventID uint) ([]BookingWithUser, error) {
	return s.repo.ListByEvent(ctx, eventID)
}

func (s *service) BookedEventIDs(ctx context.Context, eventIDs []uint) (map[uint]bool, error) {
	return s.repo.BookedEventIDs(ctx, eventIDs)
}

func (s *service) notifyConfirmed(ctx context.Context, userID uint, title string, start time.Time) {
	_, email, err := s.repo.GetUserContact(ctx, userID)
	if err != nil || email == "" {
		return
	}
	when := start.In(s.loc).Format("Mon, Jan 2 at 3:04 PM")
	if err := utils.SendBookingConfirmation(email, title, when); err != nil {
		log.Printf("⚠️ Booking confirmation email failed: %v", err)
	}
}

func (s *service) notifyPromoted(ctx context.Context, userID uint, title string, start time.Time) {
	_, email, err := s.repo.GetUserContact(ctx, userID)
	if err != nil || email == "" {
		return
	}
	when := start.In(s.loc).Format("Mon, Jan 2 at 3:04 PM")
	if err := utils.SendWaitlistPromotion(email, title, when); err != nil {
		log.Printf("⚠️ Waitlist promotion email failed: %v", err)
	}
}
