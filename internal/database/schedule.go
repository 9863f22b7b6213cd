package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
)

func (d *Database) ListSchedule(ctx context.Context, userID uuid.UUID) ([]models.ScheduleBlock, error) {
	var blocks []models.ScheduleBlock
	err := d.conn(ctx).Where("user_id = ?", userID).
		Order("day_of_week ASC").Order("start_time ASC").
		Find(&blocks).Error
	return blocks, translate(err, "schedule")
}

// ReplaceSchedule заменяет расписание пользователя целиком
func (d *Database) ReplaceSchedule(ctx context.Context, userID uuid.UUID, blocks []models.ScheduleBlock) error {
	return d.Transaction(ctx, func(tx *Database) error {
		if err := tx.db.Where("user_id = ?", userID).Delete(&models.ScheduleBlock{}).Error; err != nil {
			return translate(err, "schedule")
		}
		if len(blocks) == 0 {
			return nil
		}
		for i := range blocks {
			blocks[i].UserID = userID
		}
		return translate(tx.db.Create(&blocks).Error, "schedule")
	})
}
