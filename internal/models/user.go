package models

import (
	"time"

	"github.com/google/uuid"
)

// User представляет пользователя в системе
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	TelegramID   *int64    `json:"-"`
	Name         string    `json:"name"`
	Location     *string   `json:"location,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Rating       float64   `json:"rating"`
	RatingCount  int       `json:"rating_count"`
	SwapPoints   int       `json:"swap_points"`
	IsVerified   bool      `json:"is_verified"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary представляет минимальную информацию о пользователе для API
type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Rating      float64   `json:"rating"`
	RatingCount int       `json:"rating_count"`
	Location    *string   `json:"location,omitempty"`
}

// UserStats содержит статистику профиля
type UserStats struct {
	TotalSwaps     int `json:"total_swaps"`
	TotalDonations int `json:"total_donations"`
}

// ProfilePatch содержит частичное обновление профиля
type ProfilePatch struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Bio      *string `json:"bio"`
	Phone    *string `json:"phone"`
}

// TelegramUser представляет данные пользователя из Telegram
type TelegramUser struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
	PhotoURL   string
}

// DisplayName собирает имя для профиля из данных Telegram
func (t TelegramUser) DisplayName() string {
	name := t.FirstName
	if t.LastName != "" {
		if name != "" {
			name += " "
		}
		name += t.LastName
	}
	if name == "" {
		name = t.Username
	}
	return name
}
