package websocket

import (
	"encoding/json"
	"time"
)

// EventType определяет тип события WebSocket
type EventType string

const (
	// Входящие события
	EventJoinRoom    EventType = "joinRoom"
	EventSendMessage EventType = "sendMessage"

	// Исходящие события
	EventNewMessage EventType = "newMessage"
	EventJoinedRoom EventType = "joinedRoom"
	EventError      EventType = "error"
)

// Event представляет структуру сообщения для WebSocket
type Event struct {
	Type      EventType       `json:"type"`
	RoomID    string          `json:"room_id,omitempty"`
	Body      string          `json:"body,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func encode(event Event) ([]byte, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return json.Marshal(event)
}
