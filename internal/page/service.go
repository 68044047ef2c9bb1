package page

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("page not found")
	ErrSlugTaken   = errors.New("a page with this slug already exists")
	ErrInvalidSlug = errors.New("slug may only contain lowercase letters, digits and dashes")

	slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

type Service interface {
	Create(ctx context.Context, req *PageRequest, actorID uint) (*Page, error)
	Update(ctx context.Context, id uint, req *PageRequest, actorID uint) (*Page, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*Page, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*Page, error)
	List(ctx context.Context, publishedOnly bool) ([]Page, error)
	SetPublished(ctx context.Context, id uint, published bool, actorID uint) (*Page, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req *PageRequest, actorID uint) (*Page, error) {
	if !slugPattern.MatchString(req.Slug) {
		return nil, ErrInvalidSlug
	}

	p := &Page{
		Slug:            req.Slug,
		Title:           req.Title,
		Content:         req.Content,
		MetaDescription: req.MetaDescription,
		UpdatedBy:       actorID,
	}
	if req.IsPublished != nil && *req.IsPublished {
		now := time.Now()
		p.IsPublished = true
		p.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, id uint, req *PageRequest, actorID uint) (*Page, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Slug != "" && req.Slug != p.Slug {
		if !slugPattern.MatchString(req.Slug) {
			return nil, ErrInvalidSlug
		}
		p.Slug = req.Slug
	}
	if req.Title != "" {
		p.Title = req.Title
	}
	if req.Content != nil {
		p.Content = req.Content
	}
	p.MetaDescription = req.MetaDescription
	p.UpdatedBy = actorID
	if req.IsPublished != nil {
		s.applyPublish(p, *req.IsPublished)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) GetByID(ctx context.Context, id uint) (*Page, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetPublishedBySlug serves the public site. Drafts look like missing
// pages to anonymous visitors.
func (s *service) GetPublishedBySlug(ctx context.Context, slug string) (*Page, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !p.IsPublished {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *service) List(ctx context.Context, publishedOnly bool) ([]Page, error) {
	return s.repo.List(ctx, publishedOnly)
}

func (s *service) SetPublished(ctx context.Context, id uint, published bool, actorID uint) (*Page, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.applyPublish(p, published)
	p.UpdatedBy = actorID
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) applyPublish(p *Page, published bool) {
	if published && !p.IsPublished {
		now := time.Now()
		p.PublishedAt = &now
	}
	p.IsPublished = published
	if !published {
		p.PublishedAt = nil
	}
}

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
