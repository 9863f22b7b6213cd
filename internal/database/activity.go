package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
)

const defaultActivityLimit = 200

func (d *Database) AppendActivity(ctx context.Context, a *models.Activity) error {
	return translate(d.conn(ctx).Create(a).Error, "activity")
}

// ListActivity последние записи группы в хронологическом порядке
func (d *Database) ListActivity(ctx context.Context, groupID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	var entries []models.Activity
	err := d.conn(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, translate(err, "activity")
	}

	// Разворачиваем, чтобы старые записи были первыми
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}
