package media

import (
	"time"
)

// MediaItem represents the media_items table. Files live on disk under the
// configured upload directory; StoredName is the randomized filename the
// server actually wrote.
type MediaItem struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	StoredName   string    `gorm:"size:100;not null;uniqueIndex" json:"stored_name"`
	ContentType  string    `gorm:"size:100" json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	AltText      string    `gorm:"size:255" json:"alt_text"`
	UploadedBy   uint      `json:"uploaded_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MediaItem) TableName() string {
	return "media_items"
}

// URL is the public path the frontend uses to load the file.
func (m MediaItem) URL() string {
	return "/uploads/" + m.StoredName
}
