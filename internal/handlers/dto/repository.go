package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/internal/services"
)

type CreateRepositoryRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type RatingRequest struct {
	Score int `json:"score" binding:"required"`
}

type CollaboratorRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type RepositoryResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	CreatorID     uuid.UUID `json:"creator_id"`
	CreatorName   string    `json:"creator_name"`
	CreatedAt     time.Time `json:"created_at"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
}

func NewRepositoryResponse(s services.RepositorySummary) RepositoryResponse {
	return RepositoryResponse{
		ID:            s.ID,
		Title:         s.Title,
		Description:   s.Description,
		CreatorID:     s.CreatorID,
		CreatorName:   s.CreatorName,
		CreatedAt:     s.CreatedAt,
		AverageRating: s.AverageRating,
		RatingCount:   s.RatingCount,
	}
}

func NewRepositories(in []services.RepositorySummary) []RepositoryResponse {
	out := make([]RepositoryResponse, 0, len(in))
	for _, s := range in {
		out = append(out, NewRepositoryResponse(s))
	}
	return out
}

type CollaboratorResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AddedAt     time.Time `json:"added_at"`
}

func NewCollaborator(c models.Collaborator) CollaboratorResponse {
	return CollaboratorResponse{UserID: c.UserID, DisplayName: c.DisplayName, AddedAt: c.AddedAt}
}

type RepositoryDetailResponse struct {
	RepositoryResponse
	Collaborators []CollaboratorResponse `json:"collaborators"`
	MyRating      int                    `json:"my_rating,omitempty"`
	IsFavorite    bool                   `json:"is_favorite"`
	CanWrite      bool                   `json:"can_write"`
}

func NewRepositoryDetail(d *services.RepositoryDetail) RepositoryDetailResponse {
	collaborators := make([]CollaboratorResponse, 0, len(d.Collaborators))
	for _, c := range d.Collaborators {
		collaborators = append(collaborators, NewCollaborator(c))
	}
	return RepositoryDetailResponse{
		RepositoryResponse: NewRepositoryResponse(d.RepositorySummary),
		Collaborators:      collaborators,
		MyRating:           d.MyRating,
		IsFavorite:         d.IsFavorite,
		CanWrite:           d.CanWrite,
	}
}
