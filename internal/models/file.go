package models

import (
	"time"

	"github.com/google/uuid"
)

// FileRecord принадлежит либо группе, либо публичному репозиторию
type FileRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	GroupID      *uuid.UUID `gorm:"type:uuid;index"`
	RepositoryID *uuid.UUID `gorm:"type:uuid;index"`
	Path         string     `gorm:"uniqueIndex;not null"`
	DisplayName  string     `gorm:"not null"`
	MimeType     string
	SizeBytes    int64
	UploaderID   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}
