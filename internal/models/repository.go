package models

import (
	"time"

	"github.com/google/uuid"
)

type PublicRepository struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"not null"`
	Description string
	CreatorID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatorName string
	CreatedAt   time.Time

	Ratings []Rating `gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
}

type Collaborator struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	RepositoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_collaborator_repo_user"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_collaborator_repo_user"`
	DisplayName  string
	AddedAt      time.Time
}

type Rating struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	RepositoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_repo_user"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_repo_user"`
	Score        int       `gorm:"not null;check:score BETWEEN 1 AND 5"`
	UpdatedAt    time.Time
}

type Favorite struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	RepositoryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_repo_user"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_repo_user;index"`
	CreatedAt    time.Time
}
