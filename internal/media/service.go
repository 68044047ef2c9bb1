package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("media item not found")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file exceeds the upload size limit")
)

const maxUploadBytes = 10 << 20 // 10 MB

// Extensions the brochure site actually serves. Anything else is refused
// rather than stored and forgotten.
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
}

type Service interface {
	Upload(ctx context.Context, file *multipart.FileHeader, altText string, actorID uint, save func(dst string) error) (*MediaItem, error)
	UpdateAltText(ctx context.Context, id uint, altText string) (*MediaItem, error)
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*MediaItem, error)
	List(ctx context.Context, page, limit int) ([]MediaItem, int64, error)
}

type service struct {
	repo      Repository
	uploadDir string
}

func NewService(repo Repository, uploadDir string) Service {
	return &service{repo: repo, uploadDir: uploadDir}
}

// Upload validates and stores one uploaded file. The save callback is
// gin's SaveUploadedFile, injected so the service stays testable.
func (s *service) Upload(ctx context.Context, file *multipart.FileHeader, altText string, actorID uint, save func(dst string) error) (*MediaItem, error) {
	if file.Size > maxUploadBytes {
		return nil, ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return nil, ErrUnsupportedType
	}

	storedName := uuid.NewString() + ext
	dst := filepath.Join(s.uploadDir, storedName)
	if err := save(dst); err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	item := &MediaItem{
		OriginalName: filepath.Base(file.Filename),
		StoredName:   storedName,
		ContentType:  contentType,
		SizeBytes:    file.Size,
		AltText:      altText,
		UploadedBy:   actorID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		_ = os.Remove(dst) // don't leave orphaned files behind
		return nil, err
	}
	return item, nil
}

func (s *service) UpdateAltText(ctx context.Context, id uint, altText string) (*MediaItem, error) {
	item, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.AltText = altText
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the row first, then the file. A row without a file is a
// broken image; a file without a row is just disk garbage.
func (s *service) Delete(ctx context.Context, id uint) error {
	item, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	path := filepath.Join(s.uploadDir, item.StoredName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ Could not remove media file %s: %v", path, err)
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*MediaItem, error) {
	return s.get(ctx, id)
}

func (s *service) List(ctx context.Context, page, limit int) ([]MediaItem, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 24
	}
	return s.repo.List(ctx, page, limit)
}

func (s *service) get(ctx context.Context, id uint) (*MediaItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}
