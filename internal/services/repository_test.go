package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/flux/internal/apperr"
)

func TestRepositoryService_Rate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "Ana", "Pérez")
	luis := f.user(t, "Luis", "Gómez")
	repo, err := f.repos.Create(ctx, ana.ID, "Apuntes", "")
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", repo.CreatorName)

	for _, bad := range []int{0, 6, -1} {
		_, err := f.repos.Rate(ctx, luis.ID, repo.ID, bad)
		assert.ErrorIs(t, err, apperr.ErrValidation, bad)
	}

	_, err = f.repos.Rate(ctx, luis.ID, repo.ID, 2)
	require.NoError(t, err)
	summary, err := f.repos.Rate(ctx, ana.ID, repo.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, summary.AverageRating)

	// повторная оценка перезаписывает
	summary, err = f.repos.Rate(ctx, luis.ID, repo.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4.5, summary.AverageRating)
	assert.Equal(t, 2, summary.RatingCount)

	detail, err := f.repos.Detail(ctx, repo.ID, &luis.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, detail.MyRating)
	assert.False(t, detail.CanWrite)

	detail, err = f.repos.Detail(ctx, repo.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, detail.MyRating)
}

func TestRepositoryService_Favorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "Ana", "Pérez")
	first, err := f.repos.Create(ctx, ana.ID, "Primero", "")
	require.NoError(t, err)
	second, err := f.repos.Create(ctx, ana.ID, "Segundo", "")
	require.NoError(t, err)

	require.NoError(t, f.repos.AddFavorite(ctx, ana.ID, first.ID))
	require.NoError(t, f.repos.AddFavorite(ctx, ana.ID, second.ID))
	require.NoError(t, f.repos.AddFavorite(ctx, ana.ID, second.ID))

	favs, err := f.repos.Favorites(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, favs, 2)

	detail, err := f.repos.Detail(ctx, first.ID, &ana.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsFavorite)
	assert.True(t, detail.CanWrite)

	require.NoError(t, f.repos.RemoveFavorite(ctx, ana.ID, first.ID))
	favs, err = f.repos.Favorites(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, second.ID, favs[0].ID)
}

func TestRepositoryService_Collaborators(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "Ana", "Pérez")
	luis := f.user(t, "Luis", "Gómez")
	repo, err := f.repos.Create(ctx, ana.ID, "Apuntes", "")
	require.NoError(t, err)

	_, err = f.repos.AddCollaborator(ctx, luis.ID, repo.ID, luis.ID)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = f.repos.AddCollaborator(ctx, ana.ID, repo.ID, ana.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	c, err := f.repos.AddCollaborator(ctx, ana.ID, repo.ID, luis.ID)
	require.NoError(t, err)
	assert.Equal(t, "Luis Gómez", c.DisplayName)
	_, err = f.repos.AddCollaborator(ctx, ana.ID, repo.ID, luis.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	detail, err := f.repos.Detail(ctx, repo.ID, &luis.ID)
	require.NoError(t, err)
	assert.True(t, detail.CanWrite)
	assert.Len(t, detail.Collaborators, 1)

	require.NoError(t, f.repos.RemoveCollaborator(ctx, ana.ID, repo.ID, luis.ID))
	assert.ErrorIs(t, f.repos.RemoveCollaborator(ctx, ana.ID, repo.ID, luis.ID), apperr.ErrNotFound)
}

func TestRepositoryService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "Ana", "Pérez")
	luis := f.user(t, "Luis", "Gómez")
	repo, err := f.repos.Create(ctx, ana.ID, "Apuntes", "")
	require.NoError(t, err)
	_, err = f.files.UploadRepositoryFiles(ctx, ana.ID, repo.ID, []Upload{upload("a.pdf", pdfBytes)})
	require.NoError(t, err)

	assert.ErrorIs(t, f.repos.Delete(ctx, luis.ID, repo.ID), apperr.ErrPermissionDenied)
	require.NoError(t, f.repos.Delete(ctx, ana.ID, repo.ID))
	assert.Zero(t, f.store.count())

	_, err = f.repos.Detail(ctx, repo.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
