package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

const swapColumns = `s.id, s.requester_id, s.responder_id, s.requested_item_id, s.offered_item_id,
	s.status, s.created_at, s.updated_at`

func scanSwap(row pgx.Row, extra ...any) (*models.Swap, error) {
	var swap models.Swap
	var status string
	dest := append([]any{
		&swap.ID, &swap.RequesterID, &swap.ResponderID, &swap.RequestedItemID, &swap.OfferedItemID,
		&status, &swap.CreatedAt, &swap.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	swap.Status = models.SwapStatus(status)
	return &swap, nil
}

func statusStrings(statuses []models.SwapStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

// CreateSwapWithRoom создаёт обмен и его комнату чата в одной транзакции
func (s *Store) CreateSwapWithRoom(ctx context.Context, swap *models.Swap) (uuid.UUID, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO swaps (id, requester_id, responder_id, requested_item_id, offered_item_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, swap.ID, swap.RequesterID, swap.ResponderID, swap.RequestedItemID, swap.OfferedItemID, string(swap.Status),
	).Scan(&swap.CreatedAt, &swap.UpdatedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("ошибка при создании обмена: %w", err)
	}

	roomID := uuid.New()
	if _, err = tx.Exec(ctx, `
		INSERT INTO chat_rooms (id, swap_id) VALUES ($1, $2)
	`, roomID, swap.ID); err != nil {
		return uuid.Nil, fmt.Errorf("ошибка при создании комнаты обмена: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	swap.ChatRoomID = &roomID
	return roomID, nil
}

// GetSwap возвращает обмен с идентификатором комнаты
func (s *Store) GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var roomID *uuid.UUID
	swap, err := scanSwap(s.pool.QueryRow(ctx, `
		SELECT `+swapColumns+`, r.id
		FROM swaps s LEFT JOIN chat_rooms r ON r.swap_id = s.id
		WHERE s.id = $1
	`, id), &roomID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении обмена: %w", err)
	}
	swap.ChatRoomID = roomID
	return swap, nil
}

// AttachSwapItems подгружает вещи к обменам
func (s *Store) AttachSwapItems(ctx context.Context, swaps []*models.Swap) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	ids := make([]uuid.UUID, 0, len(swaps)*2)
	for _, sw := range swaps {
		ids = append(ids, sw.RequestedItemID, sw.OfferedItemID)
	}
	items, err := s.listItemsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, sw := range swaps {
		sw.RequestedItem = items[sw.RequestedItemID]
		sw.OfferedItem = items[sw.OfferedItemID]
	}
	return nil
}

// ListSwapsForUser возвращает обмены, где пользователь инициатор или получатель
func (s *Store) ListSwapsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Swap, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT `+swapColumns+`, r.id
		FROM swaps s LEFT JOIN chat_rooms r ON r.swap_id = s.id
		WHERE s.requester_id = $1 OR s.responder_id = $1
		ORDER BY s.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении обменов: %w", err)
	}
	defer rows.Close()

	var swaps []*models.Swap
	for rows.Next() {
		var roomID *uuid.UUID
		swap, err := scanSwap(rows, &roomID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при чтении обмена: %w", err)
		}
		swap.ChatRoomID = roomID
		swaps = append(swaps, swap)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if err = s.AttachSwapItems(ctx, swaps); err != nil {
		return nil, err
	}
	return swaps, nil
}

// TransitionSwap переводит обмен в статус to, только если текущий статус входит в from
func (s *Store) TransitionSwap(ctx context.Context, id uuid.UUID, from []models.SwapStatus, to models.SwapStatus) (*models.Swap, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	swap, err := scanSwap(s.pool.QueryRow(ctx, `
		UPDATE swaps s SET status = $2, updated_at = now()
		WHERE s.id = $1 AND s.status = ANY($3::text[])
		RETURNING `+swapColumns, id, string(to), statusStrings(from)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStateChanged
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при смене статуса обмена: %w", err)
	}
	return swap, nil
}

// CompleteSwap завершает обмен: статус, обе вещи и баллы участников меняются атомарно
func (s *Store) CompleteSwap(ctx context.Context, id uuid.UUID, reward int) (*models.Swap, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	swap, err := scanSwap(tx.QueryRow(ctx, `
		UPDATE swaps s SET status = 'COMPLETED', updated_at = now()
		WHERE s.id = $1 AND s.status = 'ACCEPTED'
		RETURNING `+swapColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStateChanged
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при завершении обмена: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE items SET status = 'SWAPPED', updated_at = now()
		WHERE id IN ($1, $2) AND status = 'AVAILABLE'
	`, swap.RequestedItemID, swap.OfferedItemID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при обновлении вещей обмена: %w", err)
	}
	if tag.RowsAffected() != 2 {
		return nil, ErrItemUnavailable
	}

	if _, err = tx.Exec(ctx, `
		UPDATE users SET swap_points = swap_points + $3, updated_at = now()
		WHERE id IN ($1, $2)
	`, swap.RequesterID, swap.ResponderID, reward); err != nil {
		return nil, fmt.Errorf("ошибка при начислении баллов: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return swap, nil
}
