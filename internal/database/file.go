package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
)

// CreateFileRecords сохраняет записи одной пачкой
func (d *Database) CreateFileRecords(ctx context.Context, files []models.FileRecord) error {
	if len(files) == 0 {
		return nil
	}
	return translate(d.conn(ctx).Create(&files).Error, "file")
}

func (d *Database) GetFile(ctx context.Context, id uuid.UUID) (*models.FileRecord, error) {
	var f models.FileRecord
	if err := d.conn(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, translate(err, "file")
	}
	return &f, nil
}

func (d *Database) ListGroupFiles(ctx context.Context, groupID uuid.UUID) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := d.conn(ctx).Where("group_id = ?", groupID).Order("created_at DESC").Find(&files).Error
	return files, translate(err, "file")
}

func (d *Database) ListRepositoryFiles(ctx context.Context, repoID uuid.UUID) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := d.conn(ctx).Where("repository_id = ?", repoID).Order("created_at DESC").Find(&files).Error
	return files, translate(err, "file")
}

func (d *Database) DeleteFile(ctx context.Context, id uuid.UUID) error {
	res := d.conn(ctx).Delete(&models.FileRecord{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "file")
	}
	if res.RowsAffected == 0 {
		return notFound("file")
	}
	return nil
}
