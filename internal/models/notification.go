package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type NotificationType string

const (
	NotificationTodoAssigned  NotificationType = "todo_assigned"
	NotificationTodoUpdated   NotificationType = "todo_updated"
	NotificationTodoCompleted NotificationType = "todo_completed"
	NotificationTodoDueSoon   NotificationType = "todo_due_soon"
)

type Notification struct {
	ID      uuid.UUID        `json:"id" gorm:"primaryKey;type:uuid"`
	Title   string           `json:"title" gorm:"not null"`
	Message string           `json:"message" gorm:"not null"`
	IsRead  bool             `json:"is_read" gorm:"default:false"`
	Type    NotificationType `json:"type" gorm:"not null"`

	UserID uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	TodoID *uuid.UUID `json:"todo_id,omitempty" gorm:"type:uuid;index"`

	// Metadata carries free-form context as a JSON document.
	Metadata string `json:"metadata,omitempty" gorm:"type:text"`

	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Todo *Todo `json:"todo,omitempty" gorm:"foreignKey:TodoID"`
}
