package page

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, p *Page) error
	Update(ctx context.Context, p *Page) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context, publishedOnly bool) ([]Page, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Page) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) Update(ctx context.Context, p *Page) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&Page{}, id).Error
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Page, error) {
	var p Page
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	var p Page
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, publishedOnly bool) ([]Page, error) {
	var pages []Page
	q := r.db.WithContext(ctx).Order("title ASC")
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	err := q.Find(&pages).Error
	return pages, err
}
