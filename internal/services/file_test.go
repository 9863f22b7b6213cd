package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/flux/internal/activity"
	"github.com/thereayou/flux/internal/apperr"
)

func TestFileService_UploadGroupFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.files.now = fixedNow(time.UnixMilli(1700000000000))
	ana := f.user(t, "Ana", "Pérez")
	luis := f.user(t, "Luis", "Gómez")
	g := f.group(t, ana, "Física", false)

	_, err := f.files.UploadGroupFiles(ctx, luis.ID, g.ID, []Upload{upload("guia.pdf", pdfBytes)})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	f.join(t, luis, g)
	files, err := f.files.UploadGroupFiles(ctx, luis.ID, g.ID, []Upload{
		upload("guía 1.pdf", pdfBytes),
		upload("diagrama.png", pngBytes),
	})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "archivos/"+g.JoinCode+"/1700000000000-gu_a_1.pdf", files[0].Path)
	assert.Equal(t, "archivos/"+g.JoinCode+"/1700000000001-diagrama.png", files[1].Path)
	assert.Equal(t, "https://cdn.test/"+files[0].Path, files[0].URL)
	assert.Equal(t, "application/pdf", files[0].MimeType)
	assert.Equal(t, 2, f.store.count())

	item := f.pub.last().Item
	assert.Equal(t, activity.KindFile, item.Kind)
	assert.Equal(t, "Luis Gómez subió 2 archivo(s).", item.Text)

	listed, err := f.files.ListGroupFiles(ctx, g.ID, &ana.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	_, err = f.files.ListGroupFiles(ctx, g.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestFileService_RejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "Ana", "Pérez")
	g := f.group(t, ana, "Física", false)

	_, err := f.files.UploadGroupFiles(ctx, ana.ID, g.ID, []Upload{
		upload("guia.pdf", pdfBytes),
		upload("notas.txt", []byte("solo texto")),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.True(t, strings.Contains(apperr.MessageOf(err), "notas.txt"))
	assert.Zero(t, f.store.count())

	_, err = f.files.UploadGroupFiles(ctx, ana.ID, g.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFileService_DeleteGroupFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "Ana", "Pérez")
	luis := f.user(t, "Luis", "Gómez")
	eva := f.user(t, "Eva", "Ruiz")
	g := f.group(t, ana, "Física", false)
	f.join(t, luis, g)
	f.join(t, eva, g)

	files, err := f.files.UploadGroupFiles(ctx, luis.ID, g.ID, []Upload{upload("guia.pdf", pdfBytes)})
	require.NoError(t, err)
	file := files[0]

	assert.ErrorIs(t, f.files.DeleteGroupFile(ctx, eva.ID, g.ID, file.ID), apperr.ErrPermissionDenied)

	// администратор может удалить чужой файл
	require.NoError(t, f.files.DeleteGroupFile(ctx, ana.ID, g.ID, file.ID))
	assert.False(t, f.store.has(file.Path))
	assert.Equal(t, "Ana Pérez eliminó un archivo del grupo.", f.pub.last().Item.Text)

	assert.ErrorIs(t, f.files.DeleteGroupFile(ctx, ana.ID, g.ID, file.ID), apperr.ErrNotFound)
}

func TestFileService_RepositoryFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "Ana", "Pérez")
	luis := f.user(t, "Luis", "Gómez")
	eva := f.user(t, "Eva", "Ruiz")

	repo, err := f.repos.Create(ctx, ana.ID, "Apuntes de Álgebra", "")
	require.NoError(t, err)
	_, err = f.repos.AddCollaborator(ctx, ana.ID, repo.ID, luis.ID)
	require.NoError(t, err)

	_, err = f.files.UploadRepositoryFiles(ctx, eva.ID, repo.ID, []Upload{upload("a.txt", []byte("hola"))})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	files, err := f.files.UploadRepositoryFiles(ctx, luis.ID, repo.ID, []Upload{upload("resumen.txt", []byte("resumen del tema"))})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0].Path, "repos/"+repo.ID.String()+"/"))

	listed, err := f.files.ListRepositoryFiles(ctx, repo.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	assert.ErrorIs(t, f.files.DeleteRepositoryFile(ctx, eva.ID, repo.ID, files[0].ID), apperr.ErrPermissionDenied)
	require.NoError(t, f.files.DeleteRepositoryFile(ctx, ana.ID, repo.ID, files[0].ID))
	assert.Zero(t, f.store.count())
}
