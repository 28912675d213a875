package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type File struct {
	ID           uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	StoredName   string     `json:"stored_name" gorm:"uniqueIndex;not null"`
	OriginalName string     `json:"original_name" gorm:"not null"`
	Path         string     `json:"-" gorm:"not null"`
	Size         int64      `json:"size" gorm:"not null"`
	MimeType     string     `json:"mime_type" gorm:"not null"`
	TodoID       *uuid.UUID `json:"todo_id,omitempty" gorm:"type:uuid;index"`
	UploadedByID uuid.UUID  `json:"uploaded_by_id" gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time  `json:"created_at"`

	Todo       *Todo `json:"todo,omitempty" gorm:"foreignKey:TodoID"`
	UploadedBy *User `json:"uploaded_by,omitempty" gorm:"foreignKey:UploadedByID"`
}
