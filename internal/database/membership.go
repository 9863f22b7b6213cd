package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
)

func (d *Database) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.conn(ctx).Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "membership")
	}
	return count > 0, nil
}

func (d *Database) IsAdmin(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.conn(ctx).Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ? AND is_admin = ?", groupID, userID, true).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "membership")
	}
	return count > 0, nil
}

// AddMembership вставляет членство; повторное вступление возвращает Conflict
func (d *Database) AddMembership(ctx context.Context, m *models.Membership) error {
	return translate(d.conn(ctx).Create(m).Error, "membership")
}

func (d *Database) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := d.conn(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if err != nil {
		return nil, translate(err, "membership")
	}
	return &m, nil
}

func (d *Database) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.Membership, error) {
	var members []models.Membership
	err := d.conn(ctx).Where("group_id = ?", groupID).Order("joined_at ASC").Find(&members).Error
	return members, translate(err, "membership")
}

// RemoveMember удаляет членство; если участников не осталось, удаляет и группу.
// Возвращает признак удаления группы и пути её файлов. Вызывать внутри Transaction.
func (d *Database) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, []string, error) {
	res := d.conn(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.Membership{})
	if res.Error != nil {
		return false, nil, translate(res.Error, "membership")
	}
	if res.RowsAffected == 0 {
		return false, nil, notFound("membership")
	}

	var remaining int64
	if err := d.conn(ctx).Model(&models.Membership{}).Where("group_id = ?", groupID).Count(&remaining).Error; err != nil {
		return false, nil, translate(err, "membership")
	}
	if remaining > 0 {
		return false, nil, nil
	}

	paths, err := d.deleteGroupRows(groupID)
	if err != nil {
		return false, nil, err
	}
	return true, paths, nil
}

// LeaveGroup RemoveMember в отдельной транзакции
func (d *Database) LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) (bool, []string, error) {
	var (
		deleted bool
		paths   []string
	)
	err := d.Transaction(ctx, func(tx *Database) error {
		var err error
		deleted, paths, err = tx.RemoveMember(ctx, groupID, userID)
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return deleted, paths, nil
}
