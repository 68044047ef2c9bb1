package booking

import (
	"time"
)

const (
	StatusConfirmed = "confirmed"
	StatusWaitlist  = "waitlist"
	StatusCancelled = "cancelled"
)

// Booking represents the bookings table
type Booking struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID     uint       `gorm:"not null;index" json:"event_id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Status      string     `gorm:"size:20;not null;index" json:"status"` // confirmed/waitlist/cancelled
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// BookingWithEvent is a booking joined with its class event details.
type BookingWithEvent struct {
	ID         uint      `json:"id"`
	EventID    uint      `json:"event_id"`
	Status     string    `json:"status"`
	Title      string    `json:"title"`
	ClassType  string    `json:"class_type"`
	Instructor string    `json:"instructor"`
	Location   string    `json:"location"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// BookingWithUser is a booking joined with the member who made it.
type BookingWithUser struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Status    string    `json:"status"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
