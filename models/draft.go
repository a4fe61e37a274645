package models

import (
	"strconv"
	"time"
)

// Draft is the editable, unpublished version of an article. Its assets live
// in the draft bucket under a directory keyed by the draft's numeric id.
type Draft struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	Title         string         `json:"title"`
	Content       Blocks         `json:"content" gorm:"serializer:json"`
	ThumbnailCrop *ThumbnailCrop `json:"thumbnail_crop,omitempty" gorm:"serializer:json"`
	PublishedID   *uint          `json:"published_id" gorm:"uniqueIndex"`
	Published     *Published     `json:"published,omitempty" gorm:"foreignKey:PublishedID"`
	Authors       []Author       `json:"authors" gorm:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Directory is the bucket-relative prefix all of this draft's assets live under.
func (d *Draft) Directory() string {
	return strconv.FormatUint(uint64(d.ID), 10)
}

// DraftAuthor is a draft-to-author join row. Position preserves the display
// order of the byline; the set is always replaced wholesale.
type DraftAuthor struct {
	DraftID  uint `json:"draft_id" gorm:"primaryKey;autoIncrement:false"`
	AuthorID uint `json:"author_id" gorm:"primaryKey;autoIncrement:false"`
	Position int  `json:"position" gorm:"not null"`
}
