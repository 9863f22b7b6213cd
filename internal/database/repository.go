package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/thereayou/flux/internal/models"
)

func (d *Database) CreateRepository(ctx context.Context, repo *models.PublicRepository) error {
	return translate(d.conn(ctx).Create(repo).Error, "repository")
}

func (d *Database) GetRepository(ctx context.Context, id uuid.UUID) (*models.PublicRepository, error) {
	var repo models.PublicRepository
	if err := d.conn(ctx).Preload("Ratings").First(&repo, "id = ?", id).Error; err != nil {
		return nil, translate(err, "repository")
	}
	return &repo, nil
}

// ListRepositories все публичные репозитории вместе с оценками
func (d *Database) ListRepositories(ctx context.Context) ([]models.PublicRepository, error) {
	var repos []models.PublicRepository
	err := d.conn(ctx).Preload("Ratings").Order("created_at DESC").Find(&repos).Error
	return repos, translate(err, "repository")
}

func (d *Database) RepositoriesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PublicRepository, error) {
	var repos []models.PublicRepository
	if len(ids) == 0 {
		return repos, nil
	}
	err := d.conn(ctx).Preload("Ratings").Where("id IN ?", ids).Order("created_at DESC").Find(&repos).Error
	return repos, translate(err, "repository")
}

// DeleteRepository удаляет репозиторий и его строки; возвращает пути файлов
func (d *Database) DeleteRepository(ctx context.Context, id uuid.UUID) ([]string, error) {
	var paths []string
	err := d.Transaction(ctx, func(tx *Database) error {
		if err := tx.db.Model(&models.FileRecord{}).Where("repository_id = ?", id).Pluck("path", &paths).Error; err != nil {
			return translate(err, "file")
		}
		for _, model := range []any{&models.FileRecord{}, &models.Rating{}, &models.Favorite{}, &models.Collaborator{}} {
			if err := tx.db.Where("repository_id = ?", id).Delete(model).Error; err != nil {
				return translate(err, "repository")
			}
		}
		res := tx.db.Delete(&models.PublicRepository{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error, "repository")
		}
		if res.RowsAffected == 0 {
			return notFound("repository")
		}
		return nil
	})
	return paths, err
}

// UpsertRating одна оценка на пару (репозиторий, пользователь); повторная перезаписывает
func (d *Database) UpsertRating(ctx context.Context, repoID, userID uuid.UUID, score int) error {
	rating := models.Rating{RepositoryID: repoID, UserID: userID, Score: score, UpdatedAt: time.Now()}
	err := d.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repository_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
	}).Create(&rating).Error
	return translate(err, "rating")
}

func (d *Database) UserRating(ctx context.Context, repoID, userID uuid.UUID) (int, error) {
	var r models.Rating
	err := d.conn(ctx).Where("repository_id = ? AND user_id = ?", repoID, userID).First(&r).Error
	if err != nil {
		return 0, translate(err, "rating")
	}
	return r.Score, nil
}

func (d *Database) AddFavorite(ctx context.Context, repoID, userID uuid.UUID) error {
	fav := models.Favorite{RepositoryID: repoID, UserID: userID}
	err := d.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
	return translate(err, "favorite")
}

func (d *Database) RemoveFavorite(ctx context.Context, repoID, userID uuid.UUID) error {
	err := d.conn(ctx).Where("repository_id = ? AND user_id = ?", repoID, userID).Delete(&models.Favorite{}).Error
	return translate(err, "favorite")
}

func (d *Database) IsFavorite(ctx context.Context, repoID, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.conn(ctx).Model(&models.Favorite{}).
		Where("repository_id = ? AND user_id = ?", repoID, userID).Count(&count).Error
	if err != nil {
		return false, translate(err, "favorite")
	}
	return count > 0, nil
}

func (d *Database) FavoriteRepositoryIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.conn(ctx).Model(&models.Favorite{}).Where("user_id = ?", userID).
		Order("created_at DESC").Pluck("repository_id", &ids).Error
	return ids, translate(err, "favorite")
}

func (d *Database) AddCollaborator(ctx context.Context, c *models.Collaborator) error {
	return translate(d.conn(ctx).Create(c).Error, "collaborator")
}

func (d *Database) RemoveCollaborator(ctx context.Context, repoID, userID uuid.UUID) error {
	res := d.conn(ctx).Where("repository_id = ? AND user_id = ?", repoID, userID).Delete(&models.Collaborator{})
	if res.Error != nil {
		return translate(res.Error, "collaborator")
	}
	if res.RowsAffected == 0 {
		return notFound("collaborator")
	}
	return nil
}

func (d *Database) IsCollaborator(ctx context.Context, repoID, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.conn(ctx).Model(&models.Collaborator{}).
		Where("repository_id = ? AND user_id = ?", repoID, userID).Count(&count).Error
	if err != nil {
		return false, translate(err, "collaborator")
	}
	return count > 0, nil
}

func (d *Database) ListCollaborators(ctx context.Context, repoID uuid.UUID) ([]models.Collaborator, error) {
	var out []models.Collaborator
	err := d.conn(ctx).Where("repository_id = ?", repoID).Order("added_at ASC").Find(&out).Error
	return out, translate(err, "collaborator")
}
