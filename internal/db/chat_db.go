package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

const roomColumns = `r.id, r.swap_id, r.participant_a, r.participant_b, r.item_id, r.created_at, r.updated_at`

type roomRow struct {
	id           uuid.UUID
	swapID       *uuid.UUID
	participantA *uuid.UUID
	participantB *uuid.UUID
	itemID       *uuid.UUID
	createdAt    time.Time
	updatedAt    time.Time
}

func (r *roomRow) dest() []any {
	return []any{&r.id, &r.swapID, &r.participantA, &r.participantB, &r.itemID, &r.createdAt, &r.updatedAt}
}

// room восстанавливает вариант комнаты; при повреждённой строке Scope остаётся nil
func (r *roomRow) room() models.ChatRoom {
	room := models.ChatRoom{ID: r.id, CreatedAt: r.createdAt, UpdatedAt: r.updatedAt}
	switch {
	case r.swapID != nil:
		room.Scope = models.SwapScope{SwapID: *r.swapID}
	case r.participantA != nil && r.participantB != nil:
		room.Scope = models.DirectScope{
			Participants: models.NewPair(*r.participantA, *r.participantB),
			ItemID:       r.itemID,
		}
	}
	return room
}

// GetRoom возвращает комнату по идентификатору
func (s *Store) GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var row roomRow
	err := s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM chat_rooms r WHERE r.id = $1`, id).Scan(row.dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении комнаты: %w", err)
	}
	room := row.room()
	return &room, nil
}

// GetOrCreateDirectRoom возвращает личную комнату пары, создавая её при первом обращении
func (s *Store) GetOrCreateDirectRoom(ctx context.Context, pair models.Pair, itemID *uuid.UUID) (*models.ChatRoom, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var row roomRow
	err := s.pool.QueryRow(ctx, `
		INSERT INTO chat_rooms AS r (id, participant_a, participant_b, item_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (participant_a, participant_b) DO NOTHING
		RETURNING `+roomColumns,
		uuid.New(), pair[0], pair[1], itemID,
	).Scan(row.dest()...)
	if err == nil {
		room := row.room()
		return &room, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if isForeignKeyViolation(err) {
			return nil, false, ErrInvalidReference
		}
		return nil, false, fmt.Errorf("ошибка при создании личной комнаты: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT `+roomColumns+` FROM chat_rooms r
		WHERE r.participant_a = $1 AND r.participant_b = $2
	`, pair[0], pair[1]).Scan(row.dest()...)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка при получении личной комнаты: %w", err)
	}
	room := row.room()
	return &room, false, nil
}

// ListMessages возвращает сообщения комнаты по возрастанию времени
func (s *Store) ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.room_id, m.sender_id, m.body, m.created_at, u.name
		FROM messages m JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении сообщений: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Body, &m.CreatedAt, &m.SenderName); err != nil {
			return nil, fmt.Errorf("ошибка при чтении сообщения: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CreateMessage сохраняет сообщение и обновляет время активности комнаты
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO messages (id, room_id, sender_id, body) VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, m.ID, m.RoomID, m.SenderID, m.Body).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении сообщения: %w", err)
	}

	if _, err = tx.Exec(ctx, `UPDATE chat_rooms SET updated_at = $2 WHERE id = $1`, m.RoomID, m.CreatedAt); err != nil {
		return fmt.Errorf("ошибка при обновлении комнаты: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}

// ListRoomSummaries возвращает комнаты пользователя с последним сообщением
func (s *Store) ListRoomSummaries(ctx context.Context, userID uuid.UUID) ([]models.RoomSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT `+roomColumns+`,
			s.id, s.requester_id, s.responder_id, s.status, s.updated_at,
			m.id, m.sender_id, m.body, m.created_at
		FROM chat_rooms r
		LEFT JOIN swaps s ON s.id = r.swap_id
		LEFT JOIN LATERAL (
			SELECT id, sender_id, body, created_at FROM messages
			WHERE room_id = r.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) m ON TRUE
		WHERE s.requester_id = $1 OR s.responder_id = $1
			OR r.participant_a = $1 OR r.participant_b = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении переписок: %w", err)
	}
	defer rows.Close()

	var summaries []models.RoomSummary
	for rows.Next() {
		var row roomRow
		var (
			swapID, requesterID, responderID *uuid.UUID
			swapStatus                       *string
			swapUpdatedAt                    *time.Time
			msgID, msgSender                 *uuid.UUID
			msgBody                          *string
			msgCreatedAt                     *time.Time
		)
		dest := append(row.dest(),
			&swapID, &requesterID, &responderID, &swapStatus, &swapUpdatedAt,
			&msgID, &msgSender, &msgBody, &msgCreatedAt,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("ошибка при чтении переписки: %w", err)
		}

		summary := models.RoomSummary{Room: row.room()}
		if swapID != nil {
			summary.Swap = &models.Swap{
				ID:          *swapID,
				RequesterID: *requesterID,
				ResponderID: *responderID,
				Status:      models.SwapStatus(*swapStatus),
				UpdatedAt:   *swapUpdatedAt,
				ChatRoomID:  &row.id,
			}
		}
		if msgID != nil {
			summary.LastMessage = &models.Message{
				ID:        *msgID,
				RoomID:    row.id,
				SenderID:  *msgSender,
				Body:      *msgBody,
				CreatedAt: *msgCreatedAt,
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// HideContact скрывает переписки с контактом; повторный вызов ничего не меняет
func (s *Store) HideContact(ctx context.Context, userID, contactID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO deleted_contacts (user_id, deleted_contact_id) VALUES ($1, $2)
		ON CONFLICT (user_id, deleted_contact_id) DO NOTHING
	`, userID, contactID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("ошибка при удалении контакта: %w", err)
	}
	return nil
}

// HiddenContacts возвращает контакты, скрытые пользователем
func (s *Store) HiddenContacts(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT deleted_contact_id FROM deleted_contacts WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении скрытых контактов: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
