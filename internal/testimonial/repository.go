package testimonial

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, t *Testimonial) error
	Update(ctx context.Context, t *Testimonial) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*Testimonial, error)
	List(ctx context.Context, approvedOnly bool) ([]Testimonial, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Testimonial) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) Update(ctx context.Context, t *Testimonial) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&Testimonial{}, id).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Testimonial, error) {
	var t Testimonial
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context, approvedOnly bool) ([]Testimonial, error) {
	var rows []Testimonial
	q := r.db.WithContext(ctx).Order("sort_order ASC, created_at DESC")
	if approvedOnly {
		q = q.Where("is_approved = ?", true)
	}
	err := q.Find(&rows).Error
	return rows, err
}
