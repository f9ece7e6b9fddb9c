package db

import (
	"context"
	"fmt"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

// CreateRating сохраняет оценку и пересчитывает средний рейтинг получателя в одной транзакции
func (s *Store) CreateRating(ctx context.Context, r *models.Rating) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO ratings (id, from_user_id, to_user_id, swap_id, score)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, r.ID, r.FromUserID, r.ToUserID, r.SwapID, r.Score).Scan(&r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("ошибка при сохранении оценки: %w", err)
	}

	var avg float64
	var count int
	if err = tx.QueryRow(ctx, `
		SELECT rating, rating_count FROM users WHERE id = $1 FOR UPDATE
	`, r.ToUserID).Scan(&avg, &count); err != nil {
		return fmt.Errorf("ошибка при блокировке пользователя: %w", err)
	}

	avg, count = models.NextAverage(avg, count, r.Score)
	if _, err = tx.Exec(ctx, `
		UPDATE users SET rating = $2, rating_count = $3, updated_at = now() WHERE id = $1
	`, r.ToUserID, avg, count); err != nil {
		return fmt.Errorf("ошибка при обновлении рейтинга: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}
