package product

import (
	"time"
)

// Product represents the products table. The site only showcases the
// catalog; purchases happen at the front desk, so there is no checkout.
type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:100;index" json:"category"`
	PriceCents  int64     `gorm:"not null" json:"price_cents"`
	ImageURL    string    `gorm:"size:500" json:"image_url"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

type ProductRequest struct {
	Name        string `json:"name" binding:"required" example:"Cork Yoga Block"`
	Description string `json:"description"`
	Category    string `json:"category" example:"props"`
	PriceCents  int64  `json:"price_cents" binding:"required,min=0" example:"1800"`
	ImageURL    string `json:"image_url"`
	IsActive    *bool  `json:"is_active"`
}

type ProductFilter struct {
	Search     string
	Category   string
	ActiveOnly bool
	Page       int
	Limit      int
}
