package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportOpen     = "OPEN"
	ReportResolved = "RESOLVED"
)

// Report представляет жалобу на пользователя, вещь или обмен
type Report struct {
	ID           uuid.UUID  `json:"id"`
	ReporterID   uuid.UUID  `json:"reporter_id"`
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty"`
	TargetItemID *uuid.UUID `json:"target_item_id,omitempty"`
	TargetSwapID *uuid.UUID `json:"target_swap_id,omitempty"`
	Reason       string     `json:"reason"`
	Details      *string    `json:"details,omitempty"`
	Status       string     `json:"status"` // OPEN, RESOLVED
	CreatedAt    time.Time  `json:"created_at"`
}
