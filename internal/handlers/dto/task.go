package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/internal/services"
)

type CreateTaskRequest struct {
	Title string `json:"title" binding:"required"`
}

type TaskResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTask(t *models.Task) TaskResponse {
	return TaskResponse{ID: t.ID, Title: t.Title, Completed: t.Completed, CreatedBy: t.CreatedBy, CreatedAt: t.CreatedAt}
}

type TaskBoardResponse struct {
	Tasks     []TaskResponse `json:"tasks"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Progress  int            `json:"progress"`
}

func NewTaskBoard(b services.TaskBoard) TaskBoardResponse {
	tasks := make([]TaskResponse, 0, len(b.Tasks))
	for i := range b.Tasks {
		tasks = append(tasks, NewTask(&b.Tasks[i]))
	}
	return TaskBoardResponse{Tasks: tasks, Completed: b.Completed, Total: len(b.Tasks), Progress: b.Progress}
}
