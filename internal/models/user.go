package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	FirstName    string
	LastName     string
	Phone        string
	DisplayName  string `gorm:"not null"`
	Career       string
	AvatarURL    string
	AvatarPath   string
	LastSeenAt   time.Time
	CreatedAt    time.Time
}

// ScheduleBlock блок недельного расписания; DayOfWeek 0 воскресенье
type ScheduleBlock struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	DayOfWeek int       `gorm:"not null"`
	StartTime string    `gorm:"size:5;not null"`
	EndTime   string    `gorm:"size:5;not null"`
	Type      string
}
