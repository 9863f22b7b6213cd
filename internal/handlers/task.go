package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/flux/internal/handlers/dto"
	"github.com/thereayou/flux/internal/services"
)

type TaskHandler struct {
	tasks *services.TaskService
	log   *slog.Logger
}

func NewTaskHandler(tasks *services.TaskService, log *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID := currentUser(c)

	board, err := h.tasks.List(c.Request.Context(), groupID, &userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskBoard(board))
}

func (h *TaskHandler) AddTask(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.tasks.Add(c.Request.Context(), currentUser(c), groupID, req.Title)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTask(task))
}

// ToggleTask переключает отметку о выполнении
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}

	task, err := h.tasks.Toggle(c.Request.Context(), currentUser(c), groupID, taskID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTask(task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), currentUser(c), groupID, taskID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}
