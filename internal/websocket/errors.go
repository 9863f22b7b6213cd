package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrForbidden       = errors.New("not allowed to subscribe to this group")
	ErrClientGone      = errors.New("client is no longer connected")
)
