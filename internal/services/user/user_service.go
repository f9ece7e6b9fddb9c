package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

// Repository - хранилище профилей и избранного
type Repository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch models.ProfilePatch) (*models.User, error)
	UserStats(ctx context.Context, id uuid.UUID) (models.UserStats, error)
	ToggleSavedItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	ListSavedItems(ctx context.Context, userID uuid.UUID) ([]*models.Item, error)
}

var (
	errUserNotFound = apperr.NotFound("Пользователь не найден")
	errItemNotFound = apperr.NotFound("Вещь не найдена")
)

// Profile - профиль пользователя со статистикой
type Profile struct {
	User  *models.User     `json:"user"`
	Stats models.UserStats `json:"stats"`
}

// UserService представляет сервис профиля и избранного
type UserService struct {
	repo Repository
}

// NewUserService создает новый экземпляр UserService
func NewUserService(repo Repository) *UserService {
	return &UserService{repo: repo}
}

// Profile возвращает профиль текущего пользователя
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка получения профиля", err)
	}
	stats, err := s.repo.UserStats(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения статистики", err)
	}
	return &Profile{User: user, Stats: stats}, nil
}

// UpdateProfile меняет переданные поля профиля
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch models.ProfilePatch) (*models.User, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation("Имя не может быть пустым")
		}
		patch.Name = &name
	}
	user, err := s.repo.UpdateProfile(ctx, userID, patch)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка обновления профиля", err)
	}
	return user, nil
}

// ToggleSaved добавляет вещь в избранное или убирает её оттуда; возвращает новое состояние
func (s *UserService) ToggleSaved(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	saved, err := s.repo.ToggleSavedItem(ctx, userID, itemID)
	if errors.Is(err, db.ErrNotFound) {
		return false, errItemNotFound
	}
	if err != nil {
		return false, apperr.Internal("Ошибка обновления избранного", err)
	}
	return saved, nil
}

// Wishlist возвращает доступные вещи из избранного
func (s *UserService) Wishlist(ctx context.Context, userID uuid.UUID) ([]*models.Item, error) {
	items, err := s.repo.ListSavedItems(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения избранного", err)
	}
	if items == nil {
		items = []*models.Item{}
	}
	return items, nil
}
