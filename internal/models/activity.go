package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity запись ленты группы, только добавляется
type Activity struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_activity_group_created"`
	ActorID   *uuid.UUID `gorm:"type:uuid"`
	Kind      string     `gorm:"size:16"`
	Message   string     `gorm:"not null"`
	CreatedAt time.Time  `gorm:"index:idx_activity_group_created"`
}
