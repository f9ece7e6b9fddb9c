package models

import (
	"time"

	"github.com/google/uuid"
)

// SwapStatus представляет состояние предложения обмена
type SwapStatus string

const (
	SwapPending   SwapStatus = "PENDING"
	SwapAccepted  SwapStatus = "ACCEPTED"
	SwapRejected  SwapStatus = "REJECTED"
	SwapCancelled SwapStatus = "CANCELLED"
	SwapCompleted SwapStatus = "COMPLETED"
)

// IsTerminal сообщает, что из статуса больше нет переходов
func (s SwapStatus) IsTerminal() bool {
	return s == SwapRejected || s == SwapCancelled || s == SwapCompleted
}

// swapSources задаёт, из каких статусов допустим переход в целевой
var swapSources = map[SwapStatus][]SwapStatus{
	SwapAccepted:  {SwapPending},
	SwapRejected:  {SwapPending},
	SwapCancelled: {SwapPending, SwapAccepted},
	SwapCompleted: {SwapAccepted},
}

// SourcesFor возвращает допустимые исходные статусы для перехода в target
func SourcesFor(target SwapStatus) []SwapStatus {
	return swapSources[target]
}

// CanTransition проверяет переход по таблице состояний
func CanTransition(from, to SwapStatus) bool {
	for _, s := range swapSources[to] {
		if s == from {
			return true
		}
	}
	return false
}

// Swap представляет предложение обмена двумя вещами
type Swap struct {
	ID              uuid.UUID  `json:"id"`
	RequesterID     uuid.UUID  `json:"requester_id"`
	ResponderID     uuid.UUID  `json:"responder_id"`
	RequestedItemID uuid.UUID  `json:"requested_item_id"`
	OfferedItemID   uuid.UUID  `json:"offered_item_id"`
	Status          SwapStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	ChatRoomID    *uuid.UUID `json:"chat_room_id,omitempty"`
	RequestedItem *Item      `json:"requested_item,omitempty"`
	OfferedItem   *Item      `json:"offered_item,omitempty"`
}

// IsParticipant сообщает, участвует ли пользователь в обмене
func (s *Swap) IsParticipant(userID uuid.UUID) bool {
	return s.RequesterID == userID || s.ResponderID == userID
}

// Counterpart возвращает второго участника обмена
func (s *Swap) Counterpart(userID uuid.UUID) uuid.UUID {
	if s.RequesterID == userID {
		return s.ResponderID
	}
	return s.RequesterID
}
