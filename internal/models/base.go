package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ID генерируется приложением, а не БД, чтобы схема работала и в Postgres, и в SQLite
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All модели для AutoMigrate в порядке зависимостей
func All() []any {
	return []any{
		&User{},
		&Group{},
		&Membership{},
		&Activity{},
		&PublicRepository{},
		&Collaborator{},
		&Rating{},
		&Favorite{},
		&FileRecord{},
		&ScheduleBlock{},
		&Task{},
	}
}

func (u *User) BeforeCreate(*gorm.DB) error { ensureID(&u.ID); return nil }
func (g *Group) BeforeCreate(*gorm.DB) error { ensureID(&g.ID); return nil }
func (m *Membership) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (a *Activity) BeforeCreate(*gorm.DB) error { ensureID(&a.ID); return nil }
func (r *PublicRepository) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }
func (c *Collaborator) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }
func (r *Rating) BeforeCreate(*gorm.DB) error { ensureID(&r.ID); return nil }
func (f *Favorite) BeforeCreate(*gorm.DB) error { ensureID(&f.ID); return nil }
func (f *FileRecord) BeforeCreate(*gorm.DB) error { ensureID(&f.ID); return nil }
func (s *ScheduleBlock) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }
func (t *Task) BeforeCreate(*gorm.DB) error { ensureID(&t.ID); return nil }
