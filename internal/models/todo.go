package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TodoStatus string

const (
	StatusPending    TodoStatus = "PENDING"
	StatusInProgress TodoStatus = "IN_PROGRESS"
	StatusCompleted  TodoStatus = "COMPLETED"
	StatusCancelled  TodoStatus = "CANCELLED"
)

func (s TodoStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type TodoPriority string

const (
	PriorityLow    TodoPriority = "LOW"
	PriorityMedium TodoPriority = "MEDIUM"
	PriorityHigh   TodoPriority = "HIGH"
	PriorityUrgent TodoPriority = "URGENT"
)

func (p TodoPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Todo struct {
	ID          uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string       `json:"title" gorm:"not null"`
	Description string       `json:"description"`
	Status      TodoStatus   `json:"status" gorm:"not null;default:'PENDING'"`
	Priority    TodoPriority `json:"priority" gorm:"not null;default:'MEDIUM'"`
	DueDate     *time.Time   `json:"due_date"`
	Position    int          `json:"position"`

	CreatorID  uuid.UUID `json:"creator_id" gorm:"type:uuid;not null;index"`
	AssigneeID uuid.UUID `json:"assignee_id" gorm:"type:uuid;not null;index"`

	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Creator  *User  `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Assignee *User  `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	Files    []File `json:"files,omitempty" gorm:"foreignKey:TodoID"`
}

func (t *Todo) IsOverdue() bool {
	if t.DueDate == nil || t.Status == StatusCompleted || t.Status == StatusCancelled {
		return false
	}
	return t.DueDate.Before(time.Now())
}
