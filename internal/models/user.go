package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Email          string    `json:"email" gorm:"unique;not null"`
	Name           string    `json:"name" gorm:"not null"`
	Password       string    `json:"-" gorm:"not null"`
	Role           Role      `json:"role" gorm:"not null;default:'USER'"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	ProfilePicture string    `json:"profile_picture,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	CreatedTodos  []Todo         `json:"created_todos,omitempty" gorm:"foreignKey:CreatorID"`
	AssignedTodos []Todo         `json:"assigned_todos,omitempty" gorm:"foreignKey:AssigneeID"`
	Files         []File         `json:"files,omitempty" gorm:"foreignKey:UploadedByID"`
	Notifications []Notification `json:"notifications,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
