package models

import (
	"fmt"
	"time"
)

// Published is the live, publicly visible version of an article. Its assets
// live in the published bucket under a directory keyed by slug and publish
// date, so two articles with the same slug never share a directory.
type Published struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	Title         string         `json:"title"`
	URL           string         `json:"url" gorm:"index;not null"`
	Content       Blocks         `json:"content" gorm:"serializer:json"`
	ThumbnailCrop *ThumbnailCrop `json:"thumbnail_crop,omitempty" gorm:"serializer:json"`
	Authors       []Author       `json:"authors" gorm:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Directory is the bucket-relative prefix all of this article's assets live under.
func (p *Published) Directory() string {
	return fmt.Sprintf("%s-%s", p.URL, p.CreatedAt.Format("02-01-2006"))
}

// PublishedAuthor is a published-to-author join row, ordered by Position.
type PublishedAuthor struct {
	PublishedID uint `json:"published_id" gorm:"primaryKey;autoIncrement:false"`
	AuthorID    uint `json:"author_id" gorm:"primaryKey;autoIncrement:false"`
	Position    int  `json:"position" gorm:"not null"`
}
