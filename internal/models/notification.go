package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType определяет тип уведомления
type NotificationType string

const (
	NotifySwapRequest   NotificationType = "swap_request"
	NotifySwapAccepted  NotificationType = "swap_accepted"
	NotifySwapRejected  NotificationType = "swap_rejected"
	NotifySwapCancelled NotificationType = "swap_cancelled"
	NotifySwapCompleted NotificationType = "swap_completed"
)

// Notification представляет уведомление пользователя
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Link      *string          `json:"link,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
