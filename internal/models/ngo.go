package models

import (
	"time"

	"github.com/google/uuid"
)

// NGO представляет организацию, которой можно пожертвовать вещь
type NGO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	City         *string   `json:"city,omitempty"`
	Country      *string   `json:"country,omitempty"`
	Categories   []string  `json:"categories"`
	ContactEmail *string   `json:"contact_email,omitempty"`
	Website      *string   `json:"website,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
