package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
)

func (d *Database) ListTasks(ctx context.Context, groupID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := d.conn(ctx).Where("group_id = ?", groupID).Order("created_at ASC").Find(&tasks).Error
	return tasks, translate(err, "task")
}

func (d *Database) CreateTask(ctx context.Context, task *models.Task) error {
	return translate(d.conn(ctx).Create(task).Error, "task")
}

func (d *Database) GetTask(ctx context.Context, groupID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := d.conn(ctx).Where("id = ? AND group_id = ?", taskID, groupID).First(&task).Error
	if err != nil {
		return nil, translate(err, "task")
	}
	return &task, nil
}

func (d *Database) SetTaskCompleted(ctx context.Context, taskID uuid.UUID, completed bool) error {
	res := d.conn(ctx).Model(&models.Task{}).Where("id = ?", taskID).Update("completed", completed)
	if res.Error != nil {
		return translate(res.Error, "task")
	}
	if res.RowsAffected == 0 {
		return notFound("task")
	}
	return nil
}

func (d *Database) DeleteTask(ctx context.Context, groupID, taskID uuid.UUID) error {
	res := d.conn(ctx).Where("id = ? AND group_id = ?", taskID, groupID).Delete(&models.Task{})
	if res.Error != nil {
		return translate(res.Error, "task")
	}
	if res.RowsAffected == 0 {
		return notFound("task")
	}
	return nil
}
