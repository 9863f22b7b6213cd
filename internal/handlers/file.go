package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/flux/internal/handlers/dto"
	"github.com/thereayou/flux/internal/middleware"
	"github.com/thereayou/flux/internal/services"
)

// FileHandler файлы групп и публичных репозиториев
type FileHandler struct {
	files *services.FileService
	log   *slog.Logger
}

func NewFileHandler(files *services.FileService, log *slog.Logger) *FileHandler {
	return &FileHandler{files: files, log: log}
}

func (h *FileHandler) ListGroupFiles(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}

	files, err := h.files.ListGroupFiles(c.Request.Context(), groupID, middleware.OptionalUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": dto.NewFiles(files)})
}

func (h *FileHandler) UploadGroupFiles(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	uploads, closeAll, err := formUploads(c, uploadField)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer closeAll()

	files, err := h.files.UploadGroupFiles(c.Request.Context(), currentUser(c), groupID, uploads)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"files": dto.NewFiles(files)})
}

func (h *FileHandler) DeleteGroupFile(c *gin.Context) {
	groupID, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileID, ok := paramID(c, "fileId")
	if !ok {
		return
	}

	if err := h.files.DeleteGroupFile(c.Request.Context(), currentUser(c), groupID, fileID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

func (h *FileHandler) ListRepositoryFiles(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}

	files, err := h.files.ListRepositoryFiles(c.Request.Context(), repoID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": dto.NewFiles(files)})
}

func (h *FileHandler) UploadRepositoryFiles(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}
	uploads, closeAll, err := formUploads(c, uploadField)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer closeAll()

	files, err := h.files.UploadRepositoryFiles(c.Request.Context(), currentUser(c), repoID, uploads)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"files": dto.NewFiles(files)})
}

func (h *FileHandler) DeleteRepositoryFile(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileID, ok := paramID(c, "fileId")
	if !ok {
		return
	}

	if err := h.files.DeleteRepositoryFile(c.Request.Context(), currentUser(c), repoID, fileID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}
