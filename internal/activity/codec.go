// Package activity кодирует и классифицирует записи ленты активности группы.
//
// Новые записи хранят вид (Kind) отдельной колонкой. Старые записи без вида
// распознаются по префиксу-тегу и по подстрокам системных фраз.
package activity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindAnnouncement Kind = "announcement"
	KindFile         Kind = "file"
	KindRename       Kind = "rename"
	KindVisibility   Kind = "visibility"
	KindJoined       Kind = "joined"
	KindCreated      Kind = "created"
	KindSystem       Kind = "system"
)

const (
	TagAnnouncement = "ANUNCIO::"
	TagFile         = "ARCHIVO::"
	TagRename       = "RENOMBRE::"
	TagVisibility   = "VISIBILIDAD::"
)

const (
	fallbackCreator = "Creador"
	fallbackSystem  = "Sistema"

	joinedMarker = "se ha unido"
)

var tags = []struct {
	prefix string
	kind   Kind
}{
	{TagAnnouncement, KindAnnouncement},
	{TagFile, KindFile},
	{TagRename, KindRename},
	{TagVisibility, KindVisibility},
}

var createdMarkers = []string{"creo el grupo", "creó el grupo"}

var joinedAuthor = regexp.MustCompile(`(?i)^(.+?)\s+se ha unido`)

// Valid сообщает, известен ли вид
func (k Kind) Valid() bool {
	switch k {
	case KindAnnouncement, KindFile, KindRename, KindVisibility, KindJoined, KindCreated, KindSystem:
		return true
	}
	return false
}

// Entry запись ленты в том виде, в котором она хранится
type Entry struct {
	ID        uuid.UUID
	Kind      Kind
	Message   string
	ActorID   *uuid.UUID
	CreatedAt time.Time
}

// Member участник группы, нужен только для имени автора
type Member struct {
	UserID      uuid.UUID
	DisplayName string
}

// StreamItem элемент ленты для отображения
type StreamItem struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

func actorName(actorID *uuid.UUID, members []Member) (string, bool) {
	if actorID == nil {
		return "", false
	}
	for _, m := range members {
		if m.UserID == *actorID && strings.TrimSpace(m.DisplayName) != "" {
			return m.DisplayName, true
		}
	}
	return "", false
}

func fallbackAuthor(kind Kind) string {
	if kind == KindAnnouncement {
		return fallbackCreator
	}
	return fallbackSystem
}

func stripTag(message string) (Kind, string, bool) {
	for _, t := range tags {
		if strings.HasPrefix(message, t.prefix) {
			return t.kind, strings.TrimPrefix(message, t.prefix), true
		}
	}
	return "", message, false
}

// Classify превращает запись в элемент ленты.
// Если у записи есть вид, эвристики не применяются.
func Classify(entry Entry, members []Member) StreamItem {
	item := StreamItem{ID: entry.ID, Timestamp: entry.CreatedAt}

	if entry.Kind.Valid() {
		return classifyStructured(item, entry, members)
	}

	if kind, text, ok := stripTag(entry.Message); ok {
		item.Kind = kind
		item.Text = text
		item.Author = authorOr(entry.ActorID, members, fallbackAuthor(kind))
		return item
	}

	if strings.Contains(entry.Message, joinedMarker) {
		item.Kind = KindJoined
		item.Author = joinedAuthorName(entry, members)
		item.Text = joinedText(item.Author)
		return item
	}

	item.Text = entry.Message
	item.Author = authorOr(entry.ActorID, members, fallbackSystem)
	if isCreated(entry.Message) {
		item.Kind = KindCreated
	} else {
		item.Kind = KindSystem
	}
	return item
}

func classifyStructured(item StreamItem, entry Entry, members []Member) StreamItem {
	_, text, _ := stripTag(entry.Message)

	item.Kind = entry.Kind
	item.Text = text
	if entry.Kind == KindJoined {
		item.Author = joinedAuthorName(entry, members)
		item.Text = joinedText(item.Author)
		return item
	}
	item.Author = authorOr(entry.ActorID, members, fallbackAuthor(entry.Kind))
	return item
}

func authorOr(actorID *uuid.UUID, members []Member, fallback string) string {
	if name, ok := actorName(actorID, members); ok {
		return name
	}
	return fallback
}

func joinedAuthorName(entry Entry, members []Member) string {
	if name, ok := actorName(entry.ActorID, members); ok {
		return name
	}
	if m := joinedAuthor.FindStringSubmatch(strings.TrimSpace(entry.Message)); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	return fallbackSystem
}

func joinedText(author string) string {
	return author + " se unió al grupo"
}

func isCreated(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range createdMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Stream классифицирует записи, сохраняя порядок
func Stream(entries []Entry, members []Member) []StreamItem {
	items := make([]StreamItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, Classify(e, members))
	}
	return items
}
