package item

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

const (
	minTitleLen       = 3
	minDescriptionLen = 10
)

var errItemNotFound = apperr.NotFound("Вещь не найдена")

// Repository - хранилище вещей
type Repository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListAvailableItems(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error)
	ListItemsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	SetItemStatus(ctx context.Context, id uuid.UUID, from, to models.ItemStatus) error
}

// ItemService представляет сервис для работы с вещами
type ItemService struct {
	repo Repository
}

// NewItemService создает новый экземпляр ItemService
func NewItemService(repo Repository) *ItemService {
	return &ItemService{repo: repo}
}

// CreateInput содержит данные новой вещи
type CreateInput struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Category      string               `json:"category"`
	Condition     models.ItemCondition `json:"condition"`
	Location      *string              `json:"location"`
	IsForSwap     *bool                `json:"is_for_swap"`
	IsForDonation bool                 `json:"is_for_donation"`
	NgoID         *uuid.UUID           `json:"ngo_id"`
	Tags          []string             `json:"tags"`
	Images        []string             `json:"images"`
}

// Create создаёт вещь от имени владельца
func (s *ItemService) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*models.Item, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)

	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}
	if in.Category == "" {
		return nil, apperr.Validation("Категория обязательна")
	}
	if !in.Condition.Valid() {
		return nil, apperr.Validation("Недопустимое состояние вещи")
	}
	if len(in.Images) == 0 {
		return nil, apperr.Validation("Добавьте хотя бы одно изображение")
	}

	images := make([]models.ItemImage, 0, len(in.Images))
	for i, raw := range in.Images {
		raw = strings.TrimSpace(raw)
		if !validImageRef(raw) {
			return nil, apperr.Validation("Некорректная ссылка на изображение")
		}
		images = append(images, models.ItemImage{URL: raw, Position: i})
	}

	item := &models.Item{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		Condition:     in.Condition,
		Location:      in.Location,
		Status:        models.ItemAvailable,
		IsForSwap:     true,
		IsForDonation: in.IsForDonation,
		Tags:          normalizeTags(in.Tags),
		Images:        images,
	}
	if in.IsForSwap != nil {
		item.IsForSwap = *in.IsForSwap
	}
	if item.IsForDonation {
		item.NgoID = in.NgoID
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		if errors.Is(err, db.ErrInvalidReference) {
			return nil, apperr.Validation("Организация не найдена")
		}
		log.Printf("Ошибка создания вещи: %v", err)
		return nil, apperr.Internal("Ошибка сохранения вещи", err)
	}
	return item, nil
}

// List возвращает доступные вещи по фильтру
func (s *ItemService) List(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	switch filter.Type {
	case "", "swap", "donation":
	default:
		return nil, apperr.Validation("Параметр type должен быть swap или donation")
	}
	items, err := s.repo.ListAvailableItems(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения вещей", err)
	}
	if items == nil {
		items = []*models.Item{}
	}
	return items, nil
}

// Get возвращает доступную вещь
func (s *ItemService) Get(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errItemNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка получения вещи", err)
	}
	if item.Status != models.ItemAvailable {
		return nil, errItemNotFound
	}
	return item, nil
}

// owned загружает вещь и скрывает чужие вещи как несуществующие
func (s *ItemService) owned(ctx context.Context, ownerID, id uuid.UUID) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errItemNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка получения вещи", err)
	}
	if !item.IsOwnedBy(ownerID) {
		return nil, errItemNotFound
	}
	return item, nil
}

// Update применяет частичное обновление к вещи владельца
func (s *ItemService) Update(ctx context.Context, ownerID, id uuid.UUID, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if item.Status != models.ItemAvailable {
		return nil, apperr.Validation("Редактировать можно только доступную вещь")
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		item.Title = title
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if err := validateDescription(desc); err != nil {
			return nil, err
		}
		item.Description = desc
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		if category == "" {
			return nil, apperr.Validation("Категория обязательна")
		}
		item.Category = category
	}
	if patch.Condition != nil {
		if !patch.Condition.Valid() {
			return nil, apperr.Validation("Недопустимое состояние вещи")
		}
		item.Condition = *patch.Condition
	}
	if patch.Location != nil {
		item.Location = patch.Location
	}
	if patch.IsForSwap != nil {
		item.IsForSwap = *patch.IsForSwap
	}
	if patch.IsForDonation != nil {
		item.IsForDonation = *patch.IsForDonation
	}
	if patch.NgoID != nil {
		item.NgoID = patch.NgoID
	}
	if patch.Tags != nil {
		item.Tags = normalizeTags(patch.Tags)
	}
	if !item.IsForDonation {
		item.NgoID = nil
	}

	switch err := s.repo.UpdateItem(ctx, item); {
	case errors.Is(err, db.ErrStateChanged):
		return nil, apperr.Validation("Редактировать можно только доступную вещь")
	case errors.Is(err, db.ErrInvalidReference):
		return nil, apperr.Validation("Организация не найдена")
	case err != nil:
		return nil, apperr.Internal("Ошибка обновления вещи", err)
	}
	return item, nil
}

// Delete архивирует вещь владельца; повторное удаление ничего не меняет
func (s *ItemService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	item, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	switch item.Status {
	case models.ItemArchived:
		return nil
	case models.ItemSwapped:
		return apperr.Validation("Вещь уже обменяна и не может быть удалена")
	}

	err = s.repo.SetItemStatus(ctx, id, models.ItemAvailable, models.ItemArchived)
	if errors.Is(err, db.ErrStateChanged) {
		// Вещь успели обменять или архивировать параллельно
		current, getErr := s.repo.GetItem(ctx, id)
		if getErr == nil && current.Status == models.ItemArchived {
			return nil
		}
		return apperr.Validation("Вещь уже обменяна и не может быть удалена")
	}
	if err != nil {
		return apperr.Internal("Ошибка удаления вещи", err)
	}
	return nil
}

// ListMine возвращает все вещи владельца
func (s *ItemService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]*models.Item, error) {
	items, err := s.repo.ListItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения вещей", err)
	}
	if items == nil {
		items = []*models.Item{}
	}
	return items, nil
}

func validateTitle(title string) error {
	if utf8.RuneCountInString(title) < minTitleLen {
		return apperr.Validation("Название должно содержать не менее 3 символов")
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) < minDescriptionLen {
		return apperr.Validation("Описание должно содержать не менее 10 символов")
	}
	return nil
}

// validImageRef принимает http(s) URL или data URI изображения в base64
func validImageRef(ref string) bool {
	if strings.HasPrefix(ref, "data:image/") {
		i := strings.Index(ref, ";base64,")
		return i > len("data:image/") && i+len(";base64,") < len(ref)
	}
	u, err := url.ParseRequestURI(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
