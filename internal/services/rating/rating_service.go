package rating

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

// ErrAlreadyRated - пользователь уже оценил этот обмен
var ErrAlreadyRated = errors.New("обмен уже оценён")

// Repository - хранилище оценок
type Repository interface {
	GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error)
	CreateRating(ctx context.Context, r *models.Rating) error
}

// RatingService представляет сервис оценок
type RatingService struct {
	repo Repository
}

// NewRatingService создает новый экземпляр RatingService
func NewRatingService(repo Repository) *RatingService {
	return &RatingService{repo: repo}
}

// RateUser сохраняет оценку второго участника завершённого обмена
func (s *RatingService) RateUser(ctx context.Context, raterID, swapID uuid.UUID, score int) (*models.Rating, error) {
	if score < models.MinScore || score > models.MaxScore {
		return nil, apperr.Validation("Оценка должна быть от 1 до 5")
	}

	swap, err := s.repo.GetSwap(ctx, swapID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("Обмен не найден")
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка получения обмена", err)
	}
	if swap.Status != models.SwapCompleted {
		return nil, apperr.Validation("Оценить можно только завершённый обмен")
	}
	if !swap.IsParticipant(raterID) {
		return nil, apperr.Forbidden("Вы не участник этого обмена")
	}

	r := &models.Rating{
		ID:         uuid.New(),
		FromUserID: raterID,
		ToUserID:   swap.Counterpart(raterID),
		SwapID:     swap.ID,
		Score:      score,
	}
	err = s.repo.CreateRating(ctx, r)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, apperr.Validation("Вы уже оценили этот обмен").Wrap(ErrAlreadyRated)
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка сохранения оценки", err)
	}
	return r, nil
}
