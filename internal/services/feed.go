// Package services бизнес-операции FLUX поверх БД, хранилища и ядра.
package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/access"
	"github.com/thereayou/flux/internal/activity"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/models"
	"github.com/thereayou/flux/internal/realtime"
)

// GroupChannels управление подписками websocket на группы
type GroupChannels interface {
	DropGroup(groupID uuid.UUID)
	DropUserFromGroup(userID, groupID uuid.UUID)
}

type nopChannels struct{}

func (nopChannels) DropGroup(uuid.UUID)                    {}
func (nopChannels) DropUserFromGroup(uuid.UUID, uuid.UUID) {}

// Feed пишет ленту активности и публикует новые записи
type Feed struct {
	publisher realtime.Publisher
	log       *slog.Logger
}

func NewFeed(publisher realtime.Publisher, log *slog.Logger) *Feed {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Feed{publisher: publisher, log: log}
}

// Append сохраняет запись через db (это может быть транзакция).
// Событие публикуется отдельно через Publish, после коммита.
func (f *Feed) Append(ctx context.Context, db *database.Database, groupID uuid.UUID, actor activity.Member, rec activity.Record) (realtime.Event, error) {
	row := &models.Activity{
		GroupID: groupID,
		Kind:    string(rec.Kind),
		Message: rec.Message,
	}
	if actor.UserID != uuid.Nil {
		id := actor.UserID
		row.ActorID = &id
	}
	if err := db.AppendActivity(ctx, row); err != nil {
		return realtime.Event{}, err
	}

	item := activity.Classify(entryFromModel(*row), []activity.Member{actor})
	return realtime.Event{
		ID:        row.ID,
		GroupID:   groupID,
		ActorID:   row.ActorID,
		Item:      item,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Publish ошибки публикации только логируются: запись уже сохранена
func (f *Feed) Publish(ctx context.Context, events ...realtime.Event) {
	for _, ev := range events {
		if err := f.publisher.Publish(ctx, ev); err != nil {
			f.log.Warn("publish activity failed", "group_id", ev.GroupID, "activity_id", ev.ID, "error", err)
		}
	}
}

func entryFromModel(a models.Activity) activity.Entry {
	return activity.Entry{
		ID:        a.ID,
		Kind:      activity.Kind(a.Kind),
		Message:   a.Message,
		ActorID:   a.ActorID,
		CreatedAt: a.CreatedAt,
	}
}

func entriesFromModels(rows []models.Activity) []activity.Entry {
	out := make([]activity.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, entryFromModel(r))
	}
	return out
}

func membersFromModels(rows []models.Membership) []activity.Member {
	out := make([]activity.Member, 0, len(rows))
	for _, m := range rows {
		out = append(out, activity.Member{UserID: m.UserID, DisplayName: m.DisplayName})
	}
	return out
}

func groupRef(g *models.Group) access.GroupRef {
	return access.GroupRef{ID: g.ID, CreatorID: g.CreatorID, IsPublic: g.IsPublic}
}

func repositoryRef(r *models.PublicRepository) access.RepositoryRef {
	return access.RepositoryRef{ID: r.ID, CreatorID: r.CreatorID}
}
