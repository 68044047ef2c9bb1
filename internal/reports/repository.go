package reports

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	BookingRows(ctx context.Context, from, to time.Time) ([]BookingReportRow, error)
	ScheduleRows(ctx context.Context, from, to time.Time, loc *time.Location) ([]ScheduleReportRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) BookingRows(ctx context.Context, from, to time.Time) ([]BookingReportRow, error) {
	var rows []BookingReportRow
	err := r.db.WithContext(ctx).
		Table("bookings b").
		Select(`
			b.id, u.full_name as member_name, u.email,
			e.title as class_title, e.instructor, e.start_time,
			b.status, b.created_at as booked_at
		`).
		Joins("JOIN users u ON b.user_id = u.id").
		Joins("JOIN class_events e ON b.event_id = e.id").
		Where("e.start_time >= ? AND e.start_time < ?", from, to).
		Order("e.start_time ASC, b.created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ScheduleRows(ctx context.Context, from, to time.Time, loc *time.Location) ([]ScheduleReportRow, error) {
	var raw []struct {
		Title      string
		Instructor string
		Location   string
		Capacity   int
		StartTime  time.Time
		EndTime    time.Time
		Booked     int
	}
	err := r.db.WithContext(ctx).
		Table("class_events e").
		Select(`
			e.title, e.instructor, e.location, e.capacity,
			e.start_time, e.end_time,
			(SELECT COUNT(*) FROM bookings b
			  WHERE b.event_id = e.id AND b.status = 'confirmed') as booked
		`).
		Where("e.is_active = ? AND e.start_time >= ? AND e.start_time < ?", true, from, to).
		Order("e.start_time ASC").
		Find(&raw).Error
	if err != nil {
		return nil, err
	}

	rows := make([]ScheduleReportRow, 0, len(raw))
	for _, e := range raw {
		start := e.StartTime.In(loc)
		end := e.EndTime.In(loc)
		rows = append(rows, ScheduleReportRow{
			Date:       start.Format("2006-01-02"),
			Weekday:    start.Format("Monday"),
			StartClock: start.Format("15:04"),
			EndClock:   end.Format("15:04"),
			Title:      e.Title,
			Instructor: e.Instructor,
			Location:   e.Location,
			Booked:     e.Booked,
			Capacity:   e.Capacity,
		})
	}
	return rows, nil
}
