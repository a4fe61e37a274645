package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

// Writers manage their own drafts; editors additionally unpublish and remove
// live articles; admins can do everything including author cleanup.
const (
	RoleWriter UserRole = "writer"
	RoleEditor UserRole = "editor"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Username  string         `json:"username" gorm:"uniqueIndex;not null"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	Role      UserRole       `json:"role" gorm:"default:'writer'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) CanModerate() bool {
	return u.Role == RoleEditor || u.Role == RoleAdmin
}
