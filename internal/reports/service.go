package reports

import (
	"context"
	"errors"
	"time"

	"github.com/calicantus/studio-cms-backend/internal/dateutil"
)

var ErrInvalidRange = errors.New("invalid report date range")

type Service interface {
	BookingsReport(ctx context.Context, fromKey, toKey, format string) ([]byte, string, string, error)
	WeeklySchedulePDF(ctx context.Context, weekOfKey string) ([]byte, string, string, error)
}

type service struct {
	repo     Repository
	exporter Exporter
	loc      *time.Location
}

func NewService(repo Repository, exporter Exporter, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, exporter: exporter, loc: loc}
}

// BookingsReport exports all bookings whose class starts inside
// [fromKey, toKey], both inclusive local dates.
func (s *service) BookingsReport(ctx context.Context, fromKey, toKey, format string) ([]byte, string, string, error) {
	from, err := dateutil.ParseKey(fromKey, s.loc)
	if err != nil {
		return nil, "", "", ErrInvalidRange
	}
	to, err := dateutil.ParseKey(toKey, s.loc)
	if err != nil {
		return nil, "", "", ErrInvalidRange
	}
	if to.Before(from) {
		return nil, "", "", ErrInvalidRange
	}

	rows, err := s.repo.BookingRows(ctx, from, dateutil.AddDays(to, 1))
	if err != nil {
		return nil, "", "", err
	}
	return s.exporter.ExportBookings(format, rows)
}

// WeeklySchedulePDF renders seven days of classes starting at the Monday
// of the week containing weekOfKey (today when empty).
func (s *service) WeeklySchedulePDF(ctx context.Context, weekOfKey string) ([]byte, string, string, error) {
	var day time.Time
	if weekOfKey == "" {
		day = dateutil.Midnight(time.Now().In(s.loc), s.loc)
	} else {
		var err error
		day, err = dateutil.ParseKey(weekOfKey, s.loc)
		if err != nil {
			return nil, "", "", ErrInvalidRange
		}
	}

	weekStart := dateutil.WeekStart(day, s.loc)
	weekEnd := dateutil.AddDays(weekStart, 7)

	rows, err := s.repo.ScheduleRows(ctx, weekStart, weekEnd, s.loc)
	if err != nil {
		return nil, "", "", err
	}
	return s.exporter.ExportSchedulePDF(rows, dateutil.KeyOf(weekStart, s.loc))
}
