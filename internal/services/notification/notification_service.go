package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

// ListLimit - сколько последних уведомлений отдаётся клиенту
const ListLimit = 50

// Repository - хранилище уведомлений
type Repository interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService отдаёт уведомления пользователю
type NotificationService struct {
	repo Repository
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(repo Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List возвращает последние уведомления, свежие первыми
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	list, err := s.repo.ListNotifications(ctx, userID, ListLimit)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения уведомлений", err)
	}
	return list, nil
}

// MarkAllRead отмечает все уведомления пользователя прочитанными
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.repo.MarkAllNotificationsRead(ctx, userID); err != nil {
		return apperr.Internal("Ошибка обновления уведомлений", err)
	}
	return nil
}

// UnreadCount возвращает число непрочитанных уведомлений
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Internal("Ошибка получения уведомлений", err)
	}
	return count, nil
}
