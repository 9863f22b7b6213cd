// Package realtime разносит события ленты активности между экземплярами сервиса через Redis pub/sub.
package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/activity"
)

const channelPrefix = "flux:activity:"

// Event новая запись ленты группы
type Event struct {
	ID        uuid.UUID           `json:"id"`
	GroupID   uuid.UUID           `json:"group_id"`
	ActorID   *uuid.UUID          `json:"actor_id,omitempty"`
	Item      activity.StreamItem `json:"item"`
	CreatedAt time.Time           `json:"created_at"`
}

// Publisher публикует события; реализации должны быть безопасны для конкурентного вызова
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Sink получатель событий на этом экземпляре (websocket hub)
type Sink interface {
	BroadcastToGroup(groupID uuid.UUID, message []byte)
}

func Channel(groupID uuid.UUID) string {
	return channelPrefix + groupID.String()
}

// NopPublisher ничего не публикует
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
