package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/access"
	"github.com/thereayou/flux/internal/activity"
	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/metrics"
	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/internal/realtime"
	"github.com/thereayou/flux/internal/storage"
)

const maxFilesPerUpload = 10

// Upload один файл из multipart-формы
type Upload struct {
	Name string
	Size int64
	Body io.ReadSeeker
}

// FileView файл с публичной ссылкой
type FileView struct {
	ID         uuid.UUID
	Name       string
	Path       string
	URL        string
	MimeType   string
	SizeBytes  int64
	UploaderID uuid.UUID
	CreatedAt  time.Time
}

type FileService struct {
	db     *database.Database
	access *access.Evaluator
	feed   *Feed
	store  storage.ObjectStore
	log    *slog.Logger
	now    func() time.Time
}

func NewFileService(db *database.Database, evaluator *access.Evaluator, feed *Feed, store storage.ObjectStore, log *slog.Logger) *FileService {
	if log == nil {
		log = slog.Default()
	}
	return &FileService{db: db, access: evaluator, feed: feed, store: store, log: log, now: time.Now}
}

func (s *FileService) view(f models.FileRecord) FileView {
	return FileView{
		ID:         f.ID,
		Name:       f.DisplayName,
		Path:       f.Path,
		URL:        s.store.PublicURL(f.Path),
		MimeType:   f.MimeType,
		SizeBytes:  f.SizeBytes,
		UploaderID: f.UploaderID,
		CreatedAt:  f.CreatedAt,
	}
}

func (s *FileService) views(files []models.FileRecord) []FileView {
	out := make([]FileView, 0, len(files))
	for _, f := range files {
		out = append(out, s.view(f))
	}
	return out
}

// put кладёт файлы в хранилище; при ошибке убирает уже загруженные
func (s *FileService) put(ctx context.Context, prefix string, policy storage.Policy, uploaderID uuid.UUID, uploads []Upload) ([]models.FileRecord, error) {
	if len(uploads) == 0 {
		return nil, apperr.Validation("no files to upload")
	}
	if len(uploads) > maxFilesPerUpload {
		return nil, apperr.Validation("too many files in one upload")
	}

	mimes := make([]string, len(uploads))
	for i, u := range uploads {
		mime, err := policy.Check(u.Name, u.Size, u.Body)
		if err != nil {
			return nil, err
		}
		mimes[i] = mime
	}

	now := s.now()
	records := make([]models.FileRecord, 0, len(uploads))
	paths := make([]string, 0, len(uploads))
	for i, u := range uploads {
		path := storage.ObjectPath(prefix, u.Name, now.Add(time.Duration(i)*time.Millisecond))
		if err := s.store.Upload(ctx, path, u.Body, u.Size, mimes[i]); err != nil {
			s.cleanup(paths)
			return nil, apperr.Backend(err)
		}
		metrics.StoredBytes.Add(float64(u.Size))
		paths = append(paths, path)
		records = append(records, models.FileRecord{
			Path:        path,
			DisplayName: u.Name,
			MimeType:    mimes[i],
			SizeBytes:   u.Size,
			UploaderID:  uploaderID,
		})
	}
	return records, nil
}

// cleanup удаление без контекста запроса: он мог быть уже отменён
func (s *FileService) cleanup(paths []string) {
	if len(paths) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.store.Remove(ctx, paths); err != nil {
		s.log.Warn("remove stored objects failed", "count", len(paths), "error", err)
	}
}

func pathsOf(records []models.FileRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Path)
	}
	return out
}

func (s *FileService) requireMember(ctx context.Context, group *models.Group, userID uuid.UUID) error {
	if group.CreatorID == userID {
		return nil
	}
	ok, err := s.db.IsMember(ctx, group.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("only group members can upload files")
	}
	return nil
}

// UploadGroupFiles загрузка файлов участником группы (pdf, png, docx)
func (s *FileService) UploadGroupFiles(ctx context.Context, userID, groupID uuid.UUID, uploads []Upload) ([]FileView, error) {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, group, userID); err != nil {
		return nil, err
	}
	actor, err := groupActor(ctx, s.db, groupID, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.put(ctx, storage.GroupPrefix(group.JoinCode), storage.GroupFilePolicy, userID, uploads)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].GroupID = &group.ID
	}

	var event realtime.Event
	err = s.db.Transaction(ctx, func(tx *database.Database) error {
		if err := tx.CreateFileRecords(ctx, records); err != nil {
			return err
		}
		ev, err := s.feed.Append(ctx, tx, groupID, actor, activity.FilesUploaded(actor.DisplayName, len(records)))
		event = ev
		return err
	})
	if err != nil {
		s.cleanup(pathsOf(records))
		return nil, err
	}

	s.log.Info("files uploaded", "group_id", groupID, "user_id", userID, "count", len(records))
	s.feed.Publish(ctx, event)
	return s.views(records), nil
}

// ListGroupFiles файлы группы для тех, кто может её читать
func (s *FileService) ListGroupFiles(ctx context.Context, groupID uuid.UUID, userID *uuid.UUID) ([]FileView, error) {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireRead(ctx, groupRef(group), userID); err != nil {
		return nil, err
	}
	files, err := s.db.ListGroupFiles(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.views(files), nil
}

// DeleteGroupFile удалить может загрузивший или администратор
func (s *FileService) DeleteGroupFile(ctx context.Context, userID, groupID, fileID uuid.UUID) error {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	file, err := s.db.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.GroupID == nil || *file.GroupID != groupID {
		return apperr.NotFound("file not found")
	}
	if file.UploaderID != userID {
		ok, err := s.access.CanManage(ctx, groupRef(group), userID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.PermissionDenied("only the uploader or a group admin can delete this file")
		}
	}
	actor, err := groupActor(ctx, s.db, groupID, userID)
	if err != nil {
		return err
	}

	var event realtime.Event
	err = s.db.Transaction(ctx, func(tx *database.Database) error {
		if err := tx.DeleteFile(ctx, fileID); err != nil {
			return err
		}
		ev, err := s.feed.Append(ctx, tx, groupID, actor, activity.FileDeleted(actor.DisplayName))
		event = ev
		return err
	})
	if err != nil {
		return err
	}

	s.cleanup([]string{file.Path})
	s.feed.Publish(ctx, event)
	return nil
}

func (s *FileService) repository(ctx context.Context, repoID, userID uuid.UUID) (*models.PublicRepository, error) {
	repo, err := s.db.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireWriteRepository(ctx, repositoryRef(repo), userID); err != nil {
		return nil, err
	}
	return repo, nil
}

// UploadRepositoryFiles загрузка в публичный репозиторий владельцем или соавтором
func (s *FileService) UploadRepositoryFiles(ctx context.Context, userID, repoID uuid.UUID, uploads []Upload) ([]FileView, error) {
	repo, err := s.repository(ctx, repoID, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.put(ctx, storage.RepositoryPrefix(repo.ID.String()), storage.RepositoryFilePolicy, userID, uploads)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].RepositoryID = &repo.ID
	}
	if err := s.db.CreateFileRecords(ctx, records); err != nil {
		s.cleanup(pathsOf(records))
		return nil, err
	}

	s.log.Info("repository files uploaded", "repository_id", repoID, "user_id", userID, "count", len(records))
	return s.views(records), nil
}

// ListRepositoryFiles репозитории публичны, проверки доступа нет
func (s *FileService) ListRepositoryFiles(ctx context.Context, repoID uuid.UUID) ([]FileView, error) {
	if _, err := s.db.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	files, err := s.db.ListRepositoryFiles(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return s.views(files), nil
}

func (s *FileService) DeleteRepositoryFile(ctx context.Context, userID, repoID, fileID uuid.UUID) error {
	if _, err := s.repository(ctx, repoID, userID); err != nil {
		return err
	}
	file, err := s.db.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.RepositoryID == nil || *file.RepositoryID != repoID {
		return apperr.NotFound("file not found")
	}
	if err := s.db.DeleteFile(ctx, fileID); err != nil {
		return err
	}
	s.cleanup([]string{file.Path})
	return nil
}

// groupActor имя участника для текстов ленты; без членства берётся профиль
func groupActor(ctx context.Context, db *database.Database, groupID, userID uuid.UUID) (activity.Member, error) {
	m, err := db.GetMembership(ctx, groupID, userID)
	if err == nil {
		return activity.Member{UserID: userID, DisplayName: m.DisplayName}, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return activity.Member{}, err
	}
	user, err := db.GetUser(ctx, userID)
	if err != nil {
		return activity.Member{}, err
	}
	return activity.Member{UserID: userID, DisplayName: user.DisplayName}, nil
}
