package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/access"
	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/internal/search"
	"github.com/thereayou/flux/internal/storage"
)

const maxRepositoryTitleLength = 120

// RepositorySummary репозиторий со средней оценкой
type RepositorySummary struct {
	models.PublicRepository
	AverageRating float64
	RatingCount   int
}

// RepositoryDetail всё, что нужно странице репозитория
type RepositoryDetail struct {
	RepositorySummary
	Collaborators []models.Collaborator
	MyRating      int
	IsFavorite    bool
	CanWrite      bool
}

type RepositoryService struct {
	db     *database.Database
	access *access.Evaluator
	store  storage.ObjectStore
	log    *slog.Logger
}

func NewRepositoryService(db *database.Database, evaluator *access.Evaluator, store storage.ObjectStore, log *slog.Logger) *RepositoryService {
	if log == nil {
		log = slog.Default()
	}
	return &RepositoryService{db: db, access: evaluator, store: store, log: log}
}

func summarize(repo models.PublicRepository) RepositorySummary {
	scores := make([]int, 0, len(repo.Ratings))
	for _, r := range repo.Ratings {
		scores = append(scores, r.Score)
	}
	return RepositorySummary{PublicRepository: repo, AverageRating: search.Average(scores), RatingCount: len(scores)}
}

func (s *RepositoryService) Create(ctx context.Context, userID uuid.UUID, title, description string) (*models.PublicRepository, error) {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return nil, apperr.Validation("repository title is required")
	}
	if utf8.RuneCountInString(title) > maxRepositoryTitleLength {
		return nil, apperr.Validation("repository title is too long")
	}
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	repo := &models.PublicRepository{
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatorID:   userID,
		CreatorName: user.DisplayName,
	}
	if err := s.db.CreateRepository(ctx, repo); err != nil {
		return nil, err
	}
	s.log.Info("repository created", "repository_id", repo.ID, "user_id", userID)
	return repo, nil
}

// Detail репозиторий; поля текущего пользователя заполняются только при userID != nil
func (s *RepositoryService) Detail(ctx context.Context, repoID uuid.UUID, userID *uuid.UUID) (*RepositoryDetail, error) {
	repo, err := s.db.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	collaborators, err := s.db.ListCollaborators(ctx, repoID)
	if err != nil {
		return nil, err
	}

	detail := &RepositoryDetail{RepositorySummary: summarize(*repo), Collaborators: collaborators}
	if userID == nil {
		return detail, nil
	}

	detail.MyRating, err = s.db.UserRating(ctx, repoID, *userID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if detail.IsFavorite, err = s.db.IsFavorite(ctx, repoID, *userID); err != nil {
		return nil, err
	}
	if detail.CanWrite, err = s.access.CanWriteRepository(ctx, repositoryRef(repo), *userID); err != nil {
		return nil, err
	}
	return detail, nil
}

// Rate оценка 1..5; повторная оценка перезаписывает прежнюю
func (s *RepositoryService) Rate(ctx context.Context, userID, repoID uuid.UUID, score int) (*RepositorySummary, error) {
	if score < 1 || score > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	if _, err := s.db.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	if err := s.db.UpsertRating(ctx, repoID, userID, score); err != nil {
		return nil, err
	}

	repo, err := s.db.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	summary := summarize(*repo)
	return &summary, nil
}

func (s *RepositoryService) AddFavorite(ctx context.Context, userID, repoID uuid.UUID) error {
	if _, err := s.db.GetRepository(ctx, repoID); err != nil {
		return err
	}
	return s.db.AddFavorite(ctx, repoID, userID)
}

func (s *RepositoryService) RemoveFavorite(ctx context.Context, userID, repoID uuid.UUID) error {
	return s.db.RemoveFavorite(ctx, repoID, userID)
}

// Favorites избранные репозитории, последние добавленные сначала
func (s *RepositoryService) Favorites(ctx context.Context, userID uuid.UUID) ([]RepositorySummary, error) {
	ids, err := s.db.FavoriteRepositoryIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	repos, err := s.db.RepositoriesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.PublicRepository, len(repos))
	for _, r := range repos {
		byID[r.ID] = r
	}
	out := make([]RepositorySummary, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, summarize(r))
		}
	}
	return out, nil
}

func (s *RepositoryService) owned(ctx context.Context, userID, repoID uuid.UUID) (*models.PublicRepository, error) {
	repo, err := s.db.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	if repo.CreatorID != userID {
		return nil, apperr.PermissionDenied("only the repository owner can do this")
	}
	return repo, nil
}

// AddCollaborator владелец даёт другому пользователю право загружать файлы
func (s *RepositoryService) AddCollaborator(ctx context.Context, userID, repoID, collaboratorID uuid.UUID) (*models.Collaborator, error) {
	repo, err := s.owned(ctx, userID, repoID)
	if err != nil {
		return nil, err
	}
	if collaboratorID == repo.CreatorID {
		return nil, apperr.Validation("the owner is already allowed to edit the repository")
	}
	user, err := s.db.GetUser(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}

	c := &models.Collaborator{
		RepositoryID: repoID,
		UserID:       collaboratorID,
		DisplayName:  user.DisplayName,
		AddedAt:      time.Now(),
	}
	if err := s.db.AddCollaborator(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *RepositoryService) RemoveCollaborator(ctx context.Context, userID, repoID, collaboratorID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, repoID); err != nil {
		return err
	}
	return s.db.RemoveCollaborator(ctx, repoID, collaboratorID)
}

// Delete удаляет репозиторий вместе с файлами в хранилище
func (s *RepositoryService) Delete(ctx context.Context, userID, repoID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, repoID); err != nil {
		return err
	}
	paths, err := s.db.DeleteRepository(ctx, repoID)
	if err != nil {
		return err
	}
	if len(paths) > 0 && s.store != nil {
		if err := s.store.Remove(ctx, paths); err != nil {
			s.log.Warn("remove repository objects failed", "repository_id", repoID, "error", err)
		}
	}
	s.log.Info("repository deleted", "repository_id", repoID, "files", len(paths))
	return nil
}
