package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/thereayou/flux/internal/metrics"
)

const defaultSeenWindow = 1024

// Relay слушает все каналы активности и передаёт события в Sink.
// Повторная доставка одного события (по ID) в пределах окна подавляется.
type Relay struct {
	rdb  *redis.Client
	sink Sink
	log  *slog.Logger
	seen *seenWindow
}

func NewRelay(rdb *redis.Client, sink Sink, log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{rdb: rdb, sink: sink, log: log, seen: newSeenWindow(defaultSeenWindow)}
}

// Run блокируется до отмены ctx; подписка закрывается при выходе
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info("activity relay subscribed", "pattern", channelPrefix+"*")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg.Channel, []byte(msg.Payload))
		}
	}
}

// ServeEvent передаёт событие напрямую, минуя Redis (один экземпляр, тесты)
func (r *Relay) ServeEvent(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("marshal activity event", "error", err)
		return
	}
	r.handle(Channel(ev.GroupID), data)
}

func (r *Relay) handle(channel string, payload []byte) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		metrics.ActivityRelayed.WithLabelValues("invalid").Inc()
		r.log.Warn("invalid activity event", "channel", channel, "error", err)
		return
	}

	groupID, err := uuid.Parse(strings.TrimPrefix(channel, channelPrefix))
	if err != nil || groupID != ev.GroupID {
		metrics.ActivityRelayed.WithLabelValues("invalid").Inc()
		r.log.Warn("activity event on unexpected channel", "channel", channel, "group_id", ev.GroupID)
		return
	}

	if !r.seen.add(ev.ID) {
		metrics.ActivityRelayed.WithLabelValues("duplicate").Inc()
		return
	}

	data, err := envelope(ev)
	if err != nil {
		r.log.Error("encode activity envelope", "error", err)
		return
	}
	r.sink.BroadcastToGroup(ev.GroupID, data)
	metrics.ActivityRelayed.WithLabelValues("delivered").Inc()
}

// envelope формат websocket-сообщения типа activity
func envelope(ev Event) ([]byte, error) {
	item, err := json.Marshal(ev.Item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type      string          `json:"type"`
		GroupID   uuid.UUID       `json:"group_id"`
		UserID    *uuid.UUID      `json:"user_id,omitempty"`
		Data      json.RawMessage `json:"data"`
		Timestamp time.Time       `json:"timestamp"`
	}{
		Type:      "activity",
		GroupID:   ev.GroupID,
		UserID:    ev.ActorID,
		Data:      item,
		Timestamp: ev.CreatedAt,
	})
}

// seenWindow ограниченное множество последних ID
type seenWindow struct {
	mu    sync.Mutex
	ids   map[uuid.UUID]struct{}
	order []uuid.UUID
	next  int
}

func newSeenWindow(size int) *seenWindow {
	return &seenWindow{ids: make(map[uuid.UUID]struct{}, size), order: make([]uuid.UUID, size)}
}

// add возвращает false, если ID уже был в окне
func (w *seenWindow) add(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.ids[id]; ok {
		return false
	}
	if old := w.order[w.next]; old != uuid.Nil {
		delete(w.ids, old)
	}
	w.order[w.next] = id
	w.ids[id] = struct{}{}
	w.next = (w.next + 1) % len(w.order)
	return true
}
