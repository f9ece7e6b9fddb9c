package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RoomKind определяет тип комнаты чата
type RoomKind string

const (
	RoomSwap   RoomKind = "swap"
	RoomDirect RoomKind = "direct"
)

// RoomScope связывает комнату либо с обменом, либо с парой пользователей
type RoomScope interface {
	Kind() RoomKind
}

// SwapScope - комната, созданная вместе с обменом
type SwapScope struct {
	SwapID uuid.UUID
}

func (SwapScope) Kind() RoomKind { return RoomSwap }

// DirectScope - личная комната двух пользователей, опционально привязанная к вещи
type DirectScope struct {
	Participants Pair
	ItemID       *uuid.UUID
}

func (DirectScope) Kind() RoomKind { return RoomDirect }

// Pair - неупорядоченная пара пользователей в каноническом порядке
type Pair [2]uuid.UUID

// NewPair упорядочивает идентификаторы, чтобы (a, b) и (b, a) давали одну пару
func NewPair(a, b uuid.UUID) Pair {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return Pair{a, b}
}

// Has сообщает, входит ли пользователь в пару
func (p Pair) Has(userID uuid.UUID) bool {
	return p[0] == userID || p[1] == userID
}

// Other возвращает второго участника пары
func (p Pair) Other(userID uuid.UUID) uuid.UUID {
	if p[0] == userID {
		return p[1]
	}
	return p[0]
}

// ChatRoom представляет комнату чата
type ChatRoom struct {
	ID        uuid.UUID
	Scope     RoomScope
	CreatedAt time.Time
	UpdatedAt time.Time
}

type chatRoomJSON struct {
	ID             uuid.UUID   `json:"id"`
	Kind           RoomKind    `json:"kind"`
	SwapID         *uuid.UUID  `json:"swap_id,omitempty"`
	ParticipantIDs []uuid.UUID `json:"participant_ids,omitempty"`
	ItemID         *uuid.UUID  `json:"item_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// MarshalJSON разворачивает вариант комнаты в плоский JSON для клиента
func (r ChatRoom) MarshalJSON() ([]byte, error) {
	out := chatRoomJSON{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
	switch scope := r.Scope.(type) {
	case SwapScope:
		out.Kind = RoomSwap
		out.SwapID = &scope.SwapID
	case DirectScope:
		out.Kind = RoomDirect
		out.ParticipantIDs = []uuid.UUID{scope.Participants[0], scope.Participants[1]}
		out.ItemID = scope.ItemID
	}
	return json.Marshal(out)
}

// Message представляет сообщение в комнате
type Message struct {
	ID         uuid.UUID `json:"id"`
	RoomID     uuid.UUID `json:"room_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	SenderName string    `json:"sender_name,omitempty"`
}

// DeletedContact скрывает переписку с контактом только для userID
type DeletedContact struct {
	UserID           uuid.UUID `json:"user_id"`
	DeletedContactID uuid.UUID `json:"deleted_contact_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// RoomSummary - строка выборки комнат пользователя вместе с последним сообщением
type RoomSummary struct {
	Room        ChatRoom
	Swap        *Swap // только для комнат обмена
	LastMessage *Message
}

// Counterpart возвращает собеседника userID; false, если комната повреждена
func (s RoomSummary) Counterpart(userID uuid.UUID) (uuid.UUID, bool) {
	switch scope := s.Room.Scope.(type) {
	case SwapScope:
		if s.Swap == nil || !s.Swap.IsParticipant(userID) {
			return uuid.Nil, false
		}
		return s.Swap.Counterpart(userID), true
	case DirectScope:
		if !scope.Participants.Has(userID) {
			return uuid.Nil, false
		}
		return scope.Participants.Other(userID), true
	}
	return uuid.Nil, false
}

// LastActivity - время последнего сообщения, иначе время обновления комнаты или обмена
func (s RoomSummary) LastActivity() time.Time {
	if s.LastMessage != nil {
		return s.LastMessage.CreatedAt
	}
	if s.Swap != nil && s.Swap.UpdatedAt.After(s.Room.UpdatedAt) {
		return s.Swap.UpdatedAt
	}
	return s.Room.UpdatedAt
}

// Conversation - запись ленты переписок
type Conversation struct {
	RoomID       uuid.UUID   `json:"room_id"`
	Kind         RoomKind    `json:"kind"`
	SwapID       *uuid.UUID  `json:"swap_id,omitempty"`
	SwapStatus   *SwapStatus `json:"swap_status,omitempty"`
	ItemID       *uuid.UUID  `json:"item_id,omitempty"`
	Counterpart  UserRef     `json:"counterpart"`
	LastMessage  *Message    `json:"last_message,omitempty"`
	LastActivity time.Time   `json:"last_activity"`
}

// UserRef - идентификатор пользователя с отображаемым именем
type UserRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}
