package models

import (
	"time"

	"gorm.io/gorm"
)

// Author is a byline entity. Distinct from User: a User authenticates,
// an Author is displayed.
type Author struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"not null"`
	Bio       string         `json:"bio"`
	AvatarURL string         `json:"avatar_url"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
