package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemCondition описывает состояние вещи
type ItemCondition string

const (
	ConditionNew  ItemCondition = "NEW"
	ConditionGood ItemCondition = "GOOD"
	ConditionUsed ItemCondition = "USED"
	ConditionPoor ItemCondition = "POOR"
)

// Valid проверяет, что состояние входит в допустимый набор
func (c ItemCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionUsed, ConditionPoor:
		return true
	}
	return false
}

// ItemStatus описывает доступность вещи
type ItemStatus string

const (
	ItemAvailable ItemStatus = "AVAILABLE"
	ItemSwapped   ItemStatus = "SWAPPED"
	ItemArchived  ItemStatus = "ARCHIVED"
)

// Item представляет вещь, выставленную пользователем для обмена или пожертвования
type Item struct {
	ID            uuid.UUID     `json:"id"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Condition     ItemCondition `json:"condition"`
	Location      *string       `json:"location,omitempty"`
	Status        ItemStatus    `json:"status"`
	IsForSwap     bool          `json:"is_for_swap"`
	IsForDonation bool          `json:"is_for_donation"`
	NgoID         *uuid.UUID    `json:"ngo_id,omitempty"`
	Tags          []string      `json:"tags"`
	Images        []ItemImage   `json:"images"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Дополнительные поля для API
	Owner *UserSummary `json:"owner,omitempty"`
}

// ItemImage представляет изображение вещи, position задаёт порядок
type ItemImage struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// IsOwnedBy сообщает, принадлежит ли вещь пользователю
func (i *Item) IsOwnedBy(userID uuid.UUID) bool {
	return i.OwnerID == userID
}

// ItemFilter содержит параметры публичного поиска вещей
type ItemFilter struct {
	Query    string
	Category string
	Type     string // swap, donation или пусто
}

// ItemPatch содержит частичное обновление вещи, nil означает "не менять"
type ItemPatch struct {
	Title         *string        `json:"title"`
	Description   *string        `json:"description"`
	Category      *string        `json:"category"`
	Condition     *ItemCondition `json:"condition"`
	Location      *string        `json:"location"`
	IsForSwap     *bool          `json:"is_for_swap"`
	IsForDonation *bool          `json:"is_for_donation"`
	NgoID         *uuid.UUID     `json:"ngo_id"`
	Tags          []string       `json:"tags"`
}
