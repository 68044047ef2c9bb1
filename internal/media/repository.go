package media

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, m *MediaItem) error
	Update(ctx context.Context, m *MediaItem) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*MediaItem, error)
	List(ctx context.Context, page, limit int) ([]MediaItem, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, m *MediaItem) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *repository) Update(ctx context.Context, m *MediaItem) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&MediaItem{}, id).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*MediaItem, error) {
	var m MediaItem
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) List(ctx context.Context, page, limit int) ([]MediaItem, int64, error) {
	var rows []MediaItem
	var total int64

	if err := r.db.WithContext(ctx).Model(&MediaItem{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&rows).Error
	return rows, total, err
}
