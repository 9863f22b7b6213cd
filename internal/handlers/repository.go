package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/flux/internal/handlers/dto"
	"github.com/thereayou/flux/internal/middleware"
	"github.com/thereayou/flux/internal/services"
)

type RepositoryHandler struct {
	repos *services.RepositoryService
	log   *slog.Logger
}

func NewRepositoryHandler(repos *services.RepositoryService, log *slog.Logger) *RepositoryHandler {
	return &RepositoryHandler{repos: repos, log: log}
}

func (h *RepositoryHandler) CreateRepository(c *gin.Context) {
	var req dto.CreateRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	repo, err := h.repos.Create(c.Request.Context(), currentUser(c), req.Title, req.Description)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewRepositoryResponse(services.RepositorySummary{PublicRepository: *repo}))
}

// GetRepository репозиторий со средней оценкой; для вошедшего еще его оценка и избранное
func (h *RepositoryHandler) GetRepository(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}

	detail, err := h.repos.Detail(c.Request.Context(), repoID, middleware.OptionalUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRepositoryDetail(detail))
}

func (h *RepositoryHandler) DeleteRepository(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.repos.Delete(c.Request.Context(), currentUser(c), repoID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "repository deleted"})
}

func (h *RepositoryHandler) Rate(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	summary, err := h.repos.Rate(c.Request.Context(), currentUser(c), repoID, req.Score)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRepositoryResponse(*summary))
}

func (h *RepositoryHandler) AddFavorite(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.repos.AddFavorite(c.Request.Context(), currentUser(c), repoID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorite": true})
}

func (h *RepositoryHandler) RemoveFavorite(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.repos.RemoveFavorite(c.Request.Context(), currentUser(c), repoID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorite": false})
}

func (h *RepositoryHandler) GetFavorites(c *gin.Context) {
	favorites, err := h.repos.Favorites(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"repositories": dto.NewRepositories(favorites)})
}

func (h *RepositoryHandler) AddCollaborator(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	collaborator, err := h.repos.AddCollaborator(c.Request.Context(), currentUser(c), repoID, req.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewCollaborator(*collaborator))
}

func (h *RepositoryHandler) RemoveCollaborator(c *gin.Context) {
	repoID, ok := paramID(c, "id")
	if !ok {
		return
	}
	collaboratorID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.repos.RemoveCollaborator(c.Request.Context(), currentUser(c), repoID, collaboratorID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "collaborator removed"})
}
