package models

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	JoinCode  string    `gorm:"size:6;uniqueIndex;not null"`
	CreatorID uuid.UUID `gorm:"type:uuid;not null;index"`
	IsPublic  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time

	// Связи
	Members []Membership `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

type Membership struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_group_user"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_group_user;index"`
	DisplayName string
	IsAdmin     bool `gorm:"not null;default:false"`
	JoinedAt    time.Time
}

type Task struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"not null"`
	Completed bool      `gorm:"not null;default:false"`
	CreatedBy uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
}
