package reports

import (
	"time"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"
)

// BookingReportRow is one line of the bookings export.
type BookingReportRow struct {
	ID         uint      `json:"id"`
	MemberName string    `json:"member_name"`
	Email      string    `json:"email"`
	ClassTitle string    `json:"class_title"`
	Instructor string    `json:"instructor"`
	StartTime  time.Time `json:"start_time"`
	Status     string    `json:"status"`
	BookedAt   time.Time `json:"booked_at"`
}

// ScheduleReportRow is one class occurrence in the weekly schedule PDF.
type ScheduleReportRow struct {
	Date       string `json:"date"` // local date key
	Weekday    string `json:"weekday"`
	StartClock string `json:"start_clock"`
	EndClock   string `json:"end_clock"`
	Title      string `json:"title"`
	Instructor string `json:"instructor"`
	Location   string `json:"location"`
	Booked     int    `json:"booked"`
	Capacity   int    `json:"capacity"`
}
