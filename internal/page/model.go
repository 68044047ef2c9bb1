package page

import (
	"time"

	"gorm.io/datatypes"
)

// Page represents the pages table. Content holds the block structure the
// frontend renders (hero, text, gallery blocks and so on) as raw JSON.
type Page struct {
	ID              uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug            string         `gorm:"size:150;not null;uniqueIndex" json:"slug"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Content         datatypes.JSON `gorm:"type:jsonb" json:"content"`
	MetaDescription string         `gorm:"size:300" json:"meta_description"`
	IsPublished     bool           `gorm:"default:false;index" json:"is_published"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	UpdatedBy       uint           `json:"updated_by"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Page) TableName() string {
	return "pages"
}

type PageRequest struct {
	Slug            string         `json:"slug" binding:"required" example:"about-us"`
	Title           string         `json:"title" binding:"required" example:"About Us"`
	Content         datatypes.JSON `json:"content"`
	MetaDescription string         `json:"meta_description"`
	IsPublished     *bool          `json:"is_published"`
}
