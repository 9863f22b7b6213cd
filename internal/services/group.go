package services

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/thereayou/flux/internal/access"
	"github.com/thereayou/flux/internal/activity"
	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/joincode"
	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/internal/realtime"
	"github.com/thereayou/flux/internal/storage"
)

const (
	maxGroupNameLength    = 80
	maxAnnouncementLength = 2000
)

// GroupPreview что видно по коду приглашения до вступления
type GroupPreview struct {
	Group    models.Group
	Members  []models.Membership
	Stream   []activity.StreamItem
	CanRead  bool
	IsMember bool
}

type GroupService struct {
	db       *database.Database
	access   *access.Evaluator
	feed     *Feed
	store    storage.ObjectStore
	channels GroupChannels
	log      *slog.Logger
	codeOpts []joincode.Option
	sanitize *bluemonday.Policy
}

func NewGroupService(db *database.Database, evaluator *access.Evaluator, feed *Feed, store storage.ObjectStore, channels GroupChannels, log *slog.Logger) *GroupService {
	if channels == nil {
		channels = nopChannels{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &GroupService{
		db:       db,
		access:   evaluator,
		feed:     feed,
		store:    store,
		channels: channels,
		log:      log,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// WithCodeOptions параметры генератора кодов (в тестах фиксированный rand)
func (s *GroupService) WithCodeOptions(opts ...joincode.Option) *GroupService {
	s.codeOpts = opts
	return s
}

func cleanName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", apperr.Validation("group name is required")
	}
	if utf8.RuneCountInString(name) > maxGroupNameLength {
		return "", apperr.Validation("group name is too long")
	}
	return name, nil
}

// MyGroups группы пользователя, последние присоединённые сначала
func (s *GroupService) MyGroups(ctx context.Context, userID uuid.UUID) ([]database.GroupSummary, error) {
	return s.db.GroupsForUser(ctx, userID)
}

// Create создаёт группу с уникальным кодом, членством-админом создателя и записью в ленте
func (s *GroupService) Create(ctx context.Context, userID uuid.UUID, name string, isPublic bool) (*models.Group, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		group *models.Group
		event realtime.Event
	)
	_, err = joincode.Insert(ctx, func(ctx context.Context, code string) error {
		return s.db.Transaction(ctx, func(tx *database.Database) error {
			g := &models.Group{Name: name, JoinCode: code, CreatorID: userID, IsPublic: isPublic}
			if err := tx.CreateGroup(ctx, g); err != nil {
				return err
			}
			if err := tx.AddMembership(ctx, &models.Membership{
				GroupID:     g.ID,
				UserID:      userID,
				DisplayName: user.DisplayName,
				IsAdmin:     true,
				JoinedAt:    time.Now(),
			}); err != nil {
				return err
			}
			ev, err := s.feed.Append(ctx, tx, g.ID, activity.Member{UserID: userID, DisplayName: user.DisplayName}, activity.Created(user.DisplayName))
			if err != nil {
				return err
			}
			group, event = g, ev
			return nil
		})
	}, database.IsUniqueViolation, s.codeOpts...)
	if err != nil {
		return nil, err
	}

	s.log.Info("group created", "group_id", group.ID, "code", group.JoinCode, "user_id", userID)
	s.feed.Publish(ctx, event)
	return group, nil
}

func (s *GroupService) groupByCode(ctx context.Context, code string) (*models.Group, error) {
	code = joincode.Normalize(code)
	if !joincode.Valid(code) {
		return nil, apperr.Validation("join code must be 6 letters or digits")
	}
	return s.db.GetGroupByCode(ctx, code)
}

// Preview участники группы по коду; лента только если пользователь может её читать
func (s *GroupService) Preview(ctx context.Context, code string, userID *uuid.UUID) (*GroupPreview, error) {
	group, err := s.groupByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	members, err := s.db.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	preview := &GroupPreview{Group: *group, Members: members}
	if userID != nil {
		for _, m := range members {
			if m.UserID == *userID {
				preview.IsMember = true
				break
			}
		}
	}

	preview.CanRead, err = s.access.CanRead(ctx, groupRef(group), userID)
	if err != nil {
		return nil, err
	}
	if preview.CanRead {
		rows, err := s.db.ListActivity(ctx, group.ID, 0)
		if err != nil {
			return nil, err
		}
		preview.Stream = activity.Stream(entriesFromModels(rows), membersFromModels(members))
	}
	return preview, nil
}

// Join вступление по коду. Повторное вступление возвращает существующее членство.
func (s *GroupService) Join(ctx context.Context, userID uuid.UUID, code string) (*models.Group, *models.Membership, error) {
	group, err := s.groupByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.db.GetMembership(ctx, group.ID, userID)
	if err == nil {
		return group, existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, nil, err
	}

	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	membership := &models.Membership{
		GroupID:     group.ID,
		UserID:      userID,
		DisplayName: user.DisplayName,
		JoinedAt:    time.Now(),
	}
	var event realtime.Event
	err = s.db.Transaction(ctx, func(tx *database.Database) error {
		if err := tx.AddMembership(ctx, membership); err != nil {
			return err
		}
		event, err = s.feed.Append(ctx, tx, group.ID, activity.Member{UserID: userID, DisplayName: user.DisplayName}, activity.Joined(user.DisplayName))
		return err
	})
	if errors.Is(err, apperr.ErrConflict) {
		// параллельное вступление того же пользователя
		existing, getErr := s.db.GetMembership(ctx, group.ID, userID)
		if getErr != nil {
			return nil, nil, getErr
		}
		return group, existing, nil
	}
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("member joined", "group_id", group.ID, "user_id", userID)
	s.feed.Publish(ctx, event)
	return group, membership, nil
}

func (s *GroupService) managed(ctx context.Context, userID, groupID uuid.UUID) (*models.Group, activity.Member, error) {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return nil, activity.Member{}, err
	}
	if err := s.access.RequireManage(ctx, groupRef(group), userID); err != nil {
		return nil, activity.Member{}, err
	}
	actor, err := groupActor(ctx, s.db, groupID, userID)
	if err != nil {
		return nil, activity.Member{}, err
	}
	return group, actor, nil
}

// Rename переименование группы администратором
func (s *GroupService) Rename(ctx context.Context, userID, groupID uuid.UUID, name string) (*models.Group, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	group, actor, err := s.managed(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if group.Name == name {
		return group, nil
	}

	var event realtime.Event
	err = s.db.Transaction(ctx, func(tx *database.Database) error {
		if err := tx.RenameGroup(ctx, groupID, name); err != nil {
			return err
		}
		event, err = s.feed.Append(ctx, tx, groupID, actor, activity.Renamed(actor.DisplayName, group.Name, name))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, event)
	group.Name = name
	return group, nil
}

// SetVisibility меняет публичность группы
func (s *GroupService) SetVisibility(ctx context.Context, userID, groupID uuid.UUID, public bool) (*models.Group, error) {
	group, actor, err := s.managed(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsPublic == public {
		return group, nil
	}

	var event realtime.Event
	err = s.db.Transaction(ctx, func(tx *database.Database) error {
		if err := tx.SetGroupVisibility(ctx, groupID, public); err != nil {
			return err
		}
		event, err = s.feed.Append(ctx, tx, groupID, actor, activity.VisibilityChanged(actor.DisplayName, public))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, event)
	group.IsPublic = public
	return group, nil
}

// Kick исключение участника администратором; создателя исключить нельзя
func (s *GroupService) Kick(ctx context.Context, userID, groupID, memberID uuid.UUID) error {
	group, actor, err := s.managed(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if memberID == group.CreatorID {
		return apperr.PermissionDenied("the group creator cannot be removed")
	}
	if memberID == userID {
		return apperr.Validation("use leave to exit the group")
	}
	member, err := s.db.GetMembership(ctx, groupID, memberID)
	if err != nil {
		return err
	}

	var (
		event   realtime.Event
		deleted bool
		paths   []string
	)
	err = s.db.Transaction(ctx, func(tx *database.Database) error {
		var err error
		deleted, paths, err = tx.RemoveMember(ctx, groupID, memberID)
		if err != nil || deleted {
			return err
		}
		event, err = s.feed.Append(ctx, tx, groupID, actor, activity.MemberRemoved(actor.DisplayName, member.DisplayName))
		return err
	})
	if err != nil {
		return err
	}

	if deleted {
		s.log.Info("group deleted after last member was removed", "group_id", groupID, "member_id", memberID, "by", userID)
		s.removeObjects(ctx, paths)
		s.channels.DropGroup(groupID)
		return nil
	}

	s.log.Info("member removed", "group_id", groupID, "member_id", memberID, "by", userID)
	s.channels.DropUserFromGroup(memberID, groupID)
	s.feed.Publish(ctx, event)
	return nil
}

// Leave выход из группы. Возвращает true, если группа удалена вместе с последним участником.
func (s *GroupService) Leave(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	member, err := s.db.GetMembership(ctx, groupID, userID)
	if err != nil {
		return false, err
	}

	deleted, paths, err := s.db.LeaveGroup(ctx, groupID, userID)
	if err != nil {
		return false, err
	}

	if deleted {
		s.log.Info("group deleted after last member left", "group_id", groupID, "user_id", userID)
		s.removeObjects(ctx, paths)
		s.channels.DropGroup(groupID)
		return true, nil
	}

	s.channels.DropUserFromGroup(userID, groupID)
	event, err := s.feed.Append(ctx, s.db, groupID, activity.Member{UserID: userID, DisplayName: member.DisplayName}, activity.MemberLeft(member.DisplayName))
	if err != nil {
		s.log.Warn("record leave activity failed", "group_id", groupID, "error", err)
		return false, nil
	}
	s.feed.Publish(ctx, event)
	return false, nil
}

// Delete удаление группы создателем
func (s *GroupService) Delete(ctx context.Context, userID, groupID uuid.UUID) error {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID != userID {
		return apperr.PermissionDenied("only the group creator can delete the group")
	}

	paths, err := s.db.DeleteGroup(ctx, groupID)
	if err != nil {
		return err
	}

	s.log.Info("group deleted", "group_id", groupID, "files", len(paths))
	s.removeObjects(ctx, paths)
	s.channels.DropGroup(groupID)
	return nil
}

func (s *GroupService) removeObjects(ctx context.Context, paths []string) {
	if len(paths) == 0 || s.store == nil {
		return
	}
	if err := s.store.Remove(ctx, paths); err != nil {
		s.log.Warn("remove stored objects failed", "count", len(paths), "error", err)
	}
}

// Stream классифицированная лента группы
func (s *GroupService) Stream(ctx context.Context, groupID uuid.UUID, userID *uuid.UUID) ([]activity.StreamItem, error) {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireRead(ctx, groupRef(group), userID); err != nil {
		return nil, err
	}

	members, err := s.db.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.ListActivity(ctx, groupID, 0)
	if err != nil {
		return nil, err
	}
	return activity.Stream(entriesFromModels(rows), membersFromModels(members)), nil
}

// Announce объявление от создателя группы
func (s *GroupService) Announce(ctx context.Context, userID, groupID uuid.UUID, text string) (activity.StreamItem, error) {
	group, err := s.db.GetGroup(ctx, groupID)
	if err != nil {
		return activity.StreamItem{}, err
	}
	if !access.CanAnnounce(groupRef(group), userID) {
		return activity.StreamItem{}, apperr.PermissionDenied("only the group creator can post announcements")
	}

	text = strings.TrimSpace(html.UnescapeString(s.sanitize.Sanitize(text)))
	if text == "" {
		return activity.StreamItem{}, apperr.Validation("announcement text is required")
	}
	if utf8.RuneCountInString(text) > maxAnnouncementLength {
		return activity.StreamItem{}, apperr.Validation("announcement is too long")
	}

	actor, err := groupActor(ctx, s.db, groupID, userID)
	if err != nil {
		return activity.StreamItem{}, err
	}
	event, err := s.feed.Append(ctx, s.db, groupID, actor, activity.Announcement(text))
	if err != nil {
		return activity.StreamItem{}, err
	}
	s.feed.Publish(ctx, event)
	return event.Item, nil
}

// CanSubscribe проверка для подписки websocket на канал группы
func (s *GroupService) CanSubscribe(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	group, err := s.db.GetGroup(ctx, groupID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.access.CanRead(ctx, groupRef(group), &userID)
}
