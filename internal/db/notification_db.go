package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

// CreateNotification сохраняет уведомление
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := s.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, type, message, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING is_read, created_at
	`, n.ID, n.UserID, string(n.Type), n.Message, n.Link).Scan(&n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении уведомления: %w", err)
	}
	return nil
}

// ListNotifications возвращает последние уведомления пользователя
func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, type, message, link, is_read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении уведомлений: %w", err)
	}
	defer rows.Close()

	list := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка при чтении уведомления: %w", err)
		}
		n.Type = models.NotificationType(typ)
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkAllNotificationsRead отмечает все непрочитанные уведомления пользователя
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("ошибка при отметке уведомлений: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountUnread возвращает число непрочитанных уведомлений
func (s *Store) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int
	if err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read
	`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка при подсчёте уведомлений: %w", err)
	}
	return count, nil
}
