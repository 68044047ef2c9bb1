package testimonial

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("testimonial not found")

type Service interface {
	Create(ctx context.Context, req *TestimonialRequest) (*Testimonial, error)
	Update(ctx context.Context, id uint, req *TestimonialRequest) (*Testimonial, error)
	Delete(ctx context.Context, id uint) error
	SetApproved(ctx context.Context, id uint, approved bool) (*Testimonial, error)
	ListPublic(ctx context.Context) ([]Testimonial, error)
	ListAll(ctx context.Context) ([]Testimonial, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req *TestimonialRequest) (*Testimonial, error) {
	rating := req.Rating
	if rating == 0 {
		rating = 5
	}
	t := &Testimonial{
		AuthorName: req.AuthorName,
		Quote:      req.Quote,
		Rating:     rating,
		SortOrder:  req.SortOrder,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Update(ctx context.Context, id uint, req *TestimonialRequest) (*Testimonial, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.AuthorName = req.AuthorName
	t.Quote = req.Quote
	if req.Rating != 0 {
		t.Rating = req.Rating
	}
	t.SortOrder = req.SortOrder
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) SetApproved(ctx context.Context, id uint, approved bool) (*Testimonial, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.IsApproved = approved
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) ListPublic(ctx context.Context) ([]Testimonial, error) {
	return s.repo.List(ctx, true)
}

func (s *service) ListAll(ctx context.Context) ([]Testimonial, error) {
	return s.repo.List(ctx, false)
}

func (s *service) get(ctx context.Context, id uint) (*Testimonial, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}
