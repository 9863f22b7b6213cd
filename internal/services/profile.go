package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/internal/schedule"
	"github.com/thereayou/flux/internal/storage"
)

// ProfileUpdate изменения профиля; nil поле не меняется.
// Пароль меняется, только если задан NewPassword.
type ProfileUpdate struct {
	DisplayName     *string
	Career          *string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// MemberProfile профиль другого пользователя с расписанием
type MemberProfile struct {
	User     models.User
	Schedule []schedule.Block
}

type ProfileService struct {
	db    *database.Database
	store storage.ObjectStore
	log   *slog.Logger
	now   func() time.Time
}

func NewProfileService(db *database.Database, store storage.ObjectStore, log *slog.Logger) *ProfileService {
	if log == nil {
		log = slog.Default()
	}
	return &ProfileService{db: db, store: store, log: log, now: time.Now}
}

func (s *ProfileService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.db.GetUser(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	renamed := false
	if upd.DisplayName != nil {
		name := strings.Join(strings.Fields(*upd.DisplayName), " ")
		if name == "" {
			return nil, apperr.Validation("display name is required")
		}
		if name != user.DisplayName {
			fields["display_name"] = name
			renamed = true
		}
	}
	if upd.Career != nil {
		fields["career"] = strings.TrimSpace(*upd.Career)
	}

	if upd.NewPassword != "" {
		if upd.CurrentPassword == "" {
			return nil, apperr.Validation("current password is required")
		}
		ok, err := checkPassword(user.PasswordHash, upd.CurrentPassword)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Validation("current password is incorrect")
		}
		if err := passwordLength(upd.NewPassword); err != nil {
			return nil, err
		}
		if upd.NewPassword != upd.ConfirmPassword {
			return nil, apperr.Validation("passwords do not match")
		}
		hash, err := hashPassword(upd.NewPassword)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	if len(fields) == 0 {
		return user, nil
	}
	if err := s.db.UpdateUserFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	if renamed {
		if err := s.db.SyncMemberNames(ctx, userID, fields["display_name"].(string)); err != nil {
			return nil, err
		}
	}
	return s.db.GetUser(ctx, userID)
}

// UploadAvatar сохраняет новую картинку и удаляет прежнюю
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, name string, size int64, body io.ReadSeeker) (*models.User, error) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	mime, err := storage.AvatarPolicy.Check(name, size, body)
	if err != nil {
		return nil, err
	}

	path := storage.ObjectPath(storage.AvatarPrefix(userID.String()), name, s.now())
	if err := s.store.Upload(ctx, path, body, size, mime); err != nil {
		return nil, apperr.Backend(err)
	}
	if err := s.db.UpdateUserFields(ctx, userID, map[string]any{
		"avatar_path": path,
		"avatar_url":  s.store.PublicURL(path),
	}); err != nil {
		s.remove(ctx, path)
		return nil, err
	}
	if user.AvatarPath != "" {
		s.remove(ctx, user.AvatarPath)
	}
	return s.db.GetUser(ctx, userID)
}

func (s *ProfileService) RemoveAvatar(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AvatarPath == "" {
		return user, nil
	}
	if err := s.db.UpdateUserFields(ctx, userID, map[string]any{"avatar_path": "", "avatar_url": ""}); err != nil {
		return nil, err
	}
	s.remove(ctx, user.AvatarPath)
	user.AvatarPath, user.AvatarURL = "", ""
	return user, nil
}

func (s *ProfileService) remove(ctx context.Context, path string) {
	if err := s.store.Remove(ctx, []string{path}); err != nil {
		s.log.Warn("remove avatar failed", "path", path, "error", err)
	}
}

func blocksFromModels(rows []models.ScheduleBlock) []schedule.Block {
	out := make([]schedule.Block, 0, len(rows))
	for _, r := range rows {
		out = append(out, schedule.Block{DayOfWeek: r.DayOfWeek, StartTime: r.StartTime, EndTime: r.EndTime, Type: r.Type})
	}
	schedule.Sort(out)
	return out
}

func (s *ProfileService) Schedule(ctx context.Context, userID uuid.UUID) ([]schedule.Block, error) {
	rows, err := s.db.ListSchedule(ctx, userID)
	if err != nil {
		return nil, err
	}
	return blocksFromModels(rows), nil
}

// ReplaceSchedule заменяет всё расписание; блоки одного дня не должны пересекаться
func (s *ProfileService) ReplaceSchedule(ctx context.Context, userID uuid.UUID, blocks []schedule.Block) ([]schedule.Block, error) {
	for i := range blocks {
		blocks[i].StartTime = strings.TrimSpace(blocks[i].StartTime)
		blocks[i].EndTime = strings.TrimSpace(blocks[i].EndTime)
		blocks[i].Type = strings.TrimSpace(blocks[i].Type)
	}
	if err := schedule.Validate(blocks); err != nil {
		return nil, err
	}
	schedule.Canonical(blocks)
	schedule.Sort(blocks)

	rows := make([]models.ScheduleBlock, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, models.ScheduleBlock{
			UserID:    userID,
			DayOfWeek: b.DayOfWeek,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Type:      b.Type,
		})
	}
	if err := s.db.ReplaceSchedule(ctx, userID, rows); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (s *ProfileService) MemberProfile(ctx context.Context, userID uuid.UUID) (*MemberProfile, error) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.Schedule(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MemberProfile{User: *user, Schedule: blocks}, nil
}
