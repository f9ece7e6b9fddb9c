package db

import (
	"context"
	"fmt"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

// CreateReport сохраняет жалобу
func (s *Store) CreateReport(ctx context.Context, r *models.Report) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := s.pool.QueryRow(ctx, `
		INSERT INTO reports (id, reporter_id, target_user_id, target_item_id, target_swap_id, reason, details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, r.ID, r.ReporterID, r.TargetUserID, r.TargetItemID, r.TargetSwapID, r.Reason, r.Details, r.Status,
	).Scan(&r.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("ошибка при сохранении жалобы: %w", err)
	}
	return nil
}
