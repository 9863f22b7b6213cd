package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
)

func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	return translate(d.conn(ctx).Create(user).Error, "user")
}

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := d.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

func (d *Database) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := d.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// UsersByIDs возвращает пользователей по списку id, отсутствующие пропускаются
func (d *Database) UsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := d.conn(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, translate(err, "user")
}

func (d *Database) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	res := d.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now())
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return notFound("user")
	}
	return nil
}

// UpdateUserFields меняет только переданные колонки
func (d *Database) UpdateUserFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := d.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return notFound("user")
	}
	return nil
}

// SyncMemberNames переносит новое отображаемое имя в членства и репозитории пользователя
func (d *Database) SyncMemberNames(ctx context.Context, userID uuid.UUID, displayName string) error {
	return d.Transaction(ctx, func(tx *Database) error {
		if err := tx.db.Model(&models.Membership{}).Where("user_id = ?", userID).
			Update("display_name", displayName).Error; err != nil {
			return translate(err, "membership")
		}
		if err := tx.db.Model(&models.Collaborator{}).Where("user_id = ?", userID).
			Update("display_name", displayName).Error; err != nil {
			return translate(err, "collaborator")
		}
		return translate(tx.db.Model(&models.PublicRepository{}).Where("creator_id = ?", userID).
			Update("creator_name", displayName).Error, "repository")
	})
}
