package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Клиент присылает только команды подписки
	maxMessageSize = 4 * 1024

	subscribeTimeout = 5 * time.Second
)

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Groups: make(map[uuid.UUID]bool),
		Hub:    hub,
	}
}

// ReadPump читает команды клиента
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("websocket read error", "client_id", c.ID, "error", err)
			}
			break
		}

		switch msg.Type {
		case TypePong:
			continue

		case TypeSubscribe:
			if msg.GroupID == nil {
				c.SendError(ErrInvalidMessage.Error())
				continue
			}
			c.subscribe(*msg.GroupID)

		case TypeUnsubscribe:
			if msg.GroupID == nil {
				c.SendError(ErrInvalidMessage.Error())
				continue
			}
			c.Hub.Unsubscribe(c, *msg.GroupID)
			c.sendGroupAck(TypeUnsubscribed, *msg.GroupID)

		default:
			c.SendError(ErrInvalidMessage.Error())
		}
	}
}

func (c *Client) subscribe(groupID uuid.UUID) {
	ctx, cancel := context.WithTimeout(c.Hub.ctx, subscribeTimeout)
	defer cancel()

	if err := c.Hub.Subscribe(ctx, c, groupID); err != nil {
		if errors.Is(err, ErrForbidden) {
			c.SendError(err.Error())
			return
		}
		c.Hub.log.Error("websocket subscribe failed", "client_id", c.ID, "group_id", groupID, "error", err)
		c.SendError("could not subscribe, try again")
		return
	}
	c.sendGroupAck(TypeSubscribed, groupID)
}

func (c *Client) sendGroupAck(t MessageType, groupID uuid.UUID) {
	msg := Message{Type: t, GroupID: &groupID, UserID: c.UserID, Timestamp: time.Now()}
	if data, err := json.Marshal(msg); err == nil {
		c.Hub.enqueueSafe(c, data)
	}
}

// WritePump отправляет сообщения клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Отправляем все накопившиеся сообщения
			n := len(c.Send)
			for i := 0; i < n; i++ {
				next, ok := <-c.Send
				if !ok {
					return
				}
				if err := c.Conn.WriteMessage(websocket.TextMessage, next); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendMessage(msgType MessageType, data interface{}) error {
	msg := Message{
		Type:      msgType,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = jsonData
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if !c.Hub.enqueueSafe(c, msgData) {
		return ErrClientQueueFull
	}
	return nil
}

func (c *Client) SendError(errorMsg string) {
	c.SendMessage(TypeError, map[string]string{
		"error": errorMsg,
	})
}

func (c *Client) IsSubscribed(groupID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Groups[groupID]
}
