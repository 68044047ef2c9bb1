package testimonial

import (
	"time"
)

// Testimonial represents the testimonials table
type Testimonial struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorName string    `gorm:"size:150;not null" json:"author_name"`
	Quote      string    `gorm:"type:text;not null" json:"quote"`
	Rating     int       `gorm:"default:5" json:"rating"` // 1..5
	IsApproved bool      `gorm:"default:false;index" json:"is_approved"`
	SortOrder  int       `gorm:"default:0" json:"sort_order"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Testimonial) TableName() string {
	return "testimonials"
}

type TestimonialRequest struct {
	AuthorName string `json:"author_name" binding:"required" example:"Priya S."`
	Quote      string `json:"quote" binding:"required" example:"Best studio in town."`
	Rating     int    `json:"rating" binding:"omitempty,min=1,max=5" example:"5"`
	SortOrder  int    `json:"sort_order"`
}
