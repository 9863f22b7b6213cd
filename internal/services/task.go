package services

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/access"
	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/models"
)

const maxTaskTitleLength = 200

// TaskBoard задачи группы и прогресс в процентах
type TaskBoard struct {
	Tasks     []models.Task
	Completed int
	Progress  int
}

type TaskService struct {
	db     *database.Database
	access *access.Evaluator
}

func NewTaskService(db *database.Database, evaluator *access.Evaluator) *TaskService {
	return &TaskService{db: db, access: evaluator}
}

func board(tasks []models.Task) TaskBoard {
	b := TaskBoard{Tasks: tasks}
	for _, t := range tasks {
		if t.Completed {
			b.Completed++
		}
	}
	if len(tasks) > 0 {
		b.Progress = int(math.Round(float64(b.Completed) * 100 / float64(len(tasks))))
	}
	return b
}

func (s *TaskService) List(ctx context.Context, groupID uuid.UUID, userID *uuid.UUID) (TaskBoard, error) {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return TaskBoard{}, err
	}
	if err := s.access.RequireRead(ctx, groupRef(group), userID); err != nil {
		return TaskBoard{}, err
	}
	tasks, err := s.db.ListTasks(ctx, groupID)
	if err != nil {
		return TaskBoard{}, err
	}
	return board(tasks), nil
}

// Add задачи добавляет только администратор
func (s *TaskService) Add(ctx context.Context, userID, groupID uuid.UUID, title string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("task title is required")
	}
	if utf8.RuneCountInString(title) > maxTaskTitleLength {
		return nil, apperr.Validation("task title is too long")
	}
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireManage(ctx, groupRef(group), userID); err != nil {
		return nil, err
	}

	task := &models.Task{GroupID: groupID, Title: title, CreatedBy: userID}
	if err := s.db.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Toggle отметить задачу может любой участник
func (s *TaskService) Toggle(ctx context.Context, userID, groupID, taskID uuid.UUID) (*models.Task, error) {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatorID != userID {
		ok, err := s.db.IsMember(ctx, groupID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.PermissionDenied("you are not a member of this group")
		}
	}

	task, err := s.db.GetTask(ctx, groupID, taskID)
	if err != nil {
		return nil, err
	}
	task.Completed = !task.Completed
	if err := s.db.SetTaskCompleted(ctx, taskID, task.Completed); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, groupID, taskID uuid.UUID) error {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if err := s.access.RequireManage(ctx, groupRef(group), userID); err != nil {
		return err
	}
	return s.db.DeleteTask(ctx, groupID, taskID)
}
