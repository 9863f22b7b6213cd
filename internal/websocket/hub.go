package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/thereayou/flux/internal/metrics"
)

// MessageType определяет типы сообщений
type MessageType string

const (
	// Системные типы
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"

	// Подписки на группы
	TypeSubscribe    MessageType = "subscribe"
	TypeUnsubscribe  MessageType = "unsubscribe"
	TypeSubscribed   MessageType = "subscribed"
	TypeUnsubscribed MessageType = "unsubscribed"

	// События групп
	TypeActivity MessageType = "activity"
)

type Message struct {
	Type      MessageType     `json:"type"`
	GroupID   *uuid.UUID      `json:"group_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Authorizer решает, может ли пользователь подписаться на группу
type Authorizer func(ctx context.Context, userID, groupID uuid.UUID) (bool, error)

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Groups map[uuid.UUID]bool
	Hub    *Hub
	mu     sync.RWMutex
}

type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Подписчики групп
	groups map[uuid.UUID]map[uuid.UUID]*Client

	unregister chan *Client
	broadcast  chan *BroadcastMessage

	authorize Authorizer
	log       *slog.Logger

	mu sync.RWMutex

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

type BroadcastMessage struct {
	GroupID uuid.UUID
	Message []byte
}

// NewHub создает новый Hub; authorize вызывается при каждой подписке
func NewHub(authorize Authorizer, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		groups:      make(map[uuid.UUID]map[uuid.UUID]*Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *BroadcastMessage, 256),
		authorize:   authorize,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
		delete(h.clients, id)
	}
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
	h.groups = make(map[uuid.UUID]map[uuid.UUID]*Client)
	metrics.WebsocketClients.Set(0)
}

// Register регистрирует нового клиента синхронно, до запуска его pump-ов
func (h *Hub) Register(client *Client) {
	if h.ctx.Err() != nil {
		return
	}
	h.registerClient(client)
}

// Unregister отменяет регистрацию клиента
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client
	metrics.WebsocketClients.Inc()

	h.log.Debug("websocket client registered", "client_id", client.ID, "user_id", client.UserID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	// Удаляем из всех групп
	for groupID := range client.Groups {
		h.removeFromGroupUnsafe(client, groupID)
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)
	metrics.WebsocketClients.Dec()

	h.log.Debug("websocket client unregistered", "client_id", client.ID, "user_id", client.UserID)
}

// Subscribe подписывает клиента на группу после проверки доступа
func (h *Hub) Subscribe(ctx context.Context, client *Client, groupID uuid.UUID) error {
	if h.authorize != nil {
		ok, err := h.authorize(ctx, client.UserID, groupID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return ErrClientGone
	}
	if _, ok := h.groups[groupID]; !ok {
		h.groups[groupID] = make(map[uuid.UUID]*Client)
	}
	h.groups[groupID][client.ID] = client

	client.mu.Lock()
	client.Groups[groupID] = true
	client.mu.Unlock()
	return nil
}

// Unsubscribe отписывает клиента от группы
func (h *Hub) Unsubscribe(client *Client, groupID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromGroupUnsafe(client, groupID)
}

func (h *Hub) removeFromGroupUnsafe(client *Client, groupID uuid.UUID) {
	group, ok := h.groups[groupID]
	if !ok {
		return
	}
	delete(group, client.ID)
	client.mu.Lock()
	delete(client.Groups, groupID)
	client.mu.Unlock()

	if len(group) == 0 {
		delete(h.groups, groupID)
	}
}

// DropGroup отписывает всех от группы (например, после её удаления)
func (h *Hub) DropGroup(groupID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.groups[groupID] {
		client.mu.Lock()
		delete(client.Groups, groupID)
		client.mu.Unlock()
	}
	delete(h.groups, groupID)
}

// DropUserFromGroup отписывает все соединения пользователя от группы (после исключения)
func (h *Hub) DropUserFromGroup(userID, groupID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.userClients[userID] {
		h.removeFromGroupUnsafe(client, groupID)
	}
}

// BroadcastToGroup ставит сообщение в очередь для подписчиков группы
func (h *Hub) BroadcastToGroup(groupID uuid.UUID, message []byte) {
	select {
	case h.broadcast <- &BroadcastMessage{GroupID: groupID, Message: message}:
	case <-h.ctx.Done():
	}
}

// SendToGroup отправляет сообщение подписчикам группы напрямую
func (h *Hub) SendToGroup(groupID uuid.UUID, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.groups[groupID] {
		h.enqueue(client, message)
	}
}

func (h *Hub) enqueue(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.log.Warn("websocket send queue full", "client_id", client.ID)
	}
}

func (h *Hub) broadcastMessage(bm *BroadcastMessage) {
	h.SendToGroup(bm.GroupID, bm.Message)
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Message{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// GroupSubscribers возвращает пользователей, подписанных на группу
func (h *Hub) GroupSubscribers(groupID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userMap := make(map[uuid.UUID]bool)
	for _, client := range h.groups[groupID] {
		userMap[client.UserID] = true
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}

// ClientCount количество активных соединений
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueueSafe кладёт сообщение в очередь, если клиент ещё зарегистрирован
func (h *Hub) enqueueSafe(client *Client, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client.ID]; !ok {
		return false
	}
	select {
	case client.Send <- message:
		return true
	default:
		return false
	}
}
