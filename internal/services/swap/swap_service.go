package swap

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

//go:generate mockgen -destination=mock/notifier.go -package=mock . Notifier

// Notifier принимает уведомления к доставке; не блокирует и не возвращает ошибок
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Repository - хранилище обменов
type Repository interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	CreateSwapWithRoom(ctx context.Context, swap *models.Swap) (uuid.UUID, error)
	GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error)
	AttachSwapItems(ctx context.Context, swaps []*models.Swap) error
	ListSwapsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Swap, error)
	TransitionSwap(ctx context.Context, id uuid.UUID, from []models.SwapStatus, to models.SwapStatus) (*models.Swap, error)
	CompleteSwap(ctx context.Context, id uuid.UUID, reward int) (*models.Swap, error)
}

var (
	errSwapNotFound  = apperr.NotFound("Обмен не найден")
	errItemNotFound  = apperr.NotFound("Вещь не найдена")
	errNotAvailable  = apperr.Validation("Обе вещи должны быть доступны для обмена")
	errSelfSwap      = apperr.Forbidden("Нельзя предложить обмен самому себе").WithStatus(http.StatusBadRequest)
	errNotOfferOwner = apperr.Forbidden("Можно предлагать только свою вещь").WithStatus(http.StatusBadRequest)
)

// SwapService представляет сервис обменов
type SwapService struct {
	repo     Repository
	notifier Notifier
	reward   int
}

// NewSwapService создает новый экземпляр SwapService
func NewSwapService(repo Repository, notifier Notifier, reward int) *SwapService {
	return &SwapService{repo: repo, notifier: notifier, reward: reward}
}

func (s *SwapService) loadItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errItemNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка получения вещи", err)
	}
	return item, nil
}

// Create создаёт предложение обмена своей вещи на чужую
func (s *SwapService) Create(ctx context.Context, requesterID, requestedItemID, offeredItemID uuid.UUID) (*models.Swap, error) {
	requested, err := s.loadItem(ctx, requestedItemID)
	if err != nil {
		return nil, err
	}
	offered, err := s.loadItem(ctx, offeredItemID)
	if err != nil {
		return nil, err
	}
	if requested.Status != models.ItemAvailable || offered.Status != models.ItemAvailable {
		return nil, errNotAvailable
	}
	if requested.OwnerID == requesterID {
		return nil, errSelfSwap
	}
	if offered.OwnerID != requesterID {
		return nil, errNotOfferOwner
	}

	swap := &models.Swap{
		ID:              uuid.New(),
		RequesterID:     requesterID,
		ResponderID:     requested.OwnerID,
		RequestedItemID: requested.ID,
		OfferedItemID:   offered.ID,
		Status:          models.SwapPending,
	}
	if _, err := s.repo.CreateSwapWithRoom(ctx, swap); err != nil {
		log.Printf("Ошибка создания обмена: %v", err)
		return nil, apperr.Internal("Ошибка создания обмена", err)
	}
	swap.RequestedItem = requested
	swap.OfferedItem = offered

	s.notify(ctx, swap.ResponderID, models.NotifySwapRequest, "Вам предложили новый обмен.", swap.ID)
	return swap, nil
}

// Get возвращает обмен его участнику
func (s *SwapService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Swap, error) {
	swap, err := s.getSwap(ctx, id)
	if err != nil {
		return nil, err
	}
	if !swap.IsParticipant(userID) {
		return nil, apperr.Forbidden("Вы не участник этого обмена")
	}
	if err := s.repo.AttachSwapItems(ctx, []*models.Swap{swap}); err != nil {
		return nil, apperr.Internal("Ошибка получения вещей обмена", err)
	}
	return swap, nil
}

// ListForUser возвращает обмены пользователя, новые первыми
func (s *SwapService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Swap, error) {
	swaps, err := s.repo.ListSwapsForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения обменов", err)
	}
	if swaps == nil {
		swaps = []*models.Swap{}
	}
	return swaps, nil
}

func (s *SwapService) getSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	swap, err := s.repo.GetSwap(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errSwapNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка получения обмена", err)
	}
	return swap, nil
}

// authorize проверяет право actor перевести обмен в target
func authorize(swap *models.Swap, actor uuid.UUID, target models.SwapStatus) error {
	switch target {
	case models.SwapAccepted, models.SwapRejected:
		if swap.ResponderID != actor {
			return apperr.Forbidden("Только получатель может принять или отклонить обмен")
		}
	case models.SwapCancelled, models.SwapCompleted:
		if !swap.IsParticipant(actor) {
			return apperr.Forbidden("Вы не участник этого обмена")
		}
	default:
		return apperr.Validation("Недопустимый статус обмена")
	}
	return nil
}

func illegalTransition(from, to models.SwapStatus) error {
	return apperr.Validation("Нельзя перевести обмен из статуса " + string(from) + " в " + string(to))
}

// ChangeStatus выполняет переход по таблице состояний от имени actor
func (s *SwapService) ChangeStatus(ctx context.Context, actor, id uuid.UUID, target models.SwapStatus) (*models.Swap, error) {
	swap, err := s.getSwap(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(swap, actor, target); err != nil {
		return nil, err
	}
	if !models.CanTransition(swap.Status, target) {
		return nil, illegalTransition(swap.Status, target)
	}

	var updated *models.Swap
	if target == models.SwapCompleted {
		updated, err = s.repo.CompleteSwap(ctx, id, s.reward)
	} else {
		updated, err = s.repo.TransitionSwap(ctx, id, models.SourcesFor(target), target)
	}
	switch {
	case errors.Is(err, db.ErrStateChanged):
		return nil, apperr.Validation("Статус обмена уже изменился")
	case errors.Is(err, db.ErrItemUnavailable):
		return nil, apperr.Validation("Одна из вещей больше не доступна для обмена")
	case err != nil:
		log.Printf("Ошибка смены статуса обмена %s: %v", id, err)
		return nil, apperr.Internal("Ошибка смены статуса обмена", err)
	}
	updated.ChatRoomID = swap.ChatRoomID

	switch target {
	case models.SwapAccepted:
		s.notify(ctx, updated.RequesterID, models.NotifySwapAccepted, "Ваше предложение обмена приняли.", id)
	case models.SwapRejected:
		s.notify(ctx, updated.RequesterID, models.NotifySwapRejected, "Ваше предложение обмена отклонили.", id)
	case models.SwapCancelled:
		s.notify(ctx, updated.Counterpart(actor), models.NotifySwapCancelled, "Обмен отменён другим участником.", id)
	case models.SwapCompleted:
		for _, uid := range []uuid.UUID{updated.RequesterID, updated.ResponderID} {
			s.notify(ctx, uid, models.NotifySwapCompleted, "Обмен завершён.", id)
		}
	}
	return updated, nil
}

func (s *SwapService) notify(ctx context.Context, userID uuid.UUID, typ models.NotificationType, message string, swapID uuid.UUID) {
	link := "/swaps/" + swapID.String()
	s.notifier.Notify(ctx, models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    typ,
		Message: message,
		Link:    &link,
	})
}
