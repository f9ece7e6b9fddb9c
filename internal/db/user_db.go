package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

const userColumns = `id, email, password_hash, telegram_id, name, location, avatar_url, bio, phone,
	rating, rating_count, swap_points, is_verified, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var passwordHash *string
	err := row.Scan(
		&user.ID, &user.Email, &passwordHash, &user.TelegramID, &user.Name, &user.Location, &user.AvatarURL,
		&user.Bio, &user.Phone, &user.Rating, &user.RatingCount, &user.SwapPoints, &user.IsVerified,
		&user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	return &user, nil
}

func getUserWhere(q pgx.Row) (*models.User, error) {
	user, err := scanUser(q)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}
	return user, nil
}

// CreateUser регистрирует пользователя по email
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, name, location, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.PasswordHash, user.Name, user.Location, user.Phone,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("ошибка при создании пользователя: %w", err)
	}
	return nil
}

// GetUser получает пользователя по ID
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return getUserWhere(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail получает пользователя по email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return getUserWhere(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// UpsertTelegramUser создает нового пользователя через Telegram или обновляет существующего
func (s *Store) UpsertTelegramUser(ctx context.Context, tg models.TelegramUser) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// Начинаем транзакцию
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var photo *string
	if tg.PhotoURL != "" {
		photo = &tg.PhotoURL
	}

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE telegram_id = $1 FOR UPDATE`, tg.TelegramID).Scan(&userID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		userID = uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO users (id, telegram_id, name, avatar_url, is_verified)
			VALUES ($1, $2, $3, $4, TRUE)
		`, userID, tg.TelegramID, tg.DisplayName(), photo)
		if err != nil {
			return nil, fmt.Errorf("ошибка при создании пользователя Telegram: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("ошибка при проверке существования пользователя Telegram: %w", err)
	default:
		// Имя в профиле пользователь мог поменять сам, обновляем только аватар
		_, err = tx.Exec(ctx, `
			UPDATE users SET avatar_url = COALESCE($2, avatar_url), updated_at = now()
			WHERE id = $1
		`, userID, photo)
		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении пользователя Telegram: %w", err)
		}
	}

	user, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	// Фиксируем транзакцию
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	s.names.Remove(userID)
	return user, nil
}

// UpdateProfile применяет частичное обновление профиля
func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, patch models.ProfilePatch) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	user, err := getUserWhere(s.pool.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			location = COALESCE($3, location),
			bio = COALESCE($4, bio),
			phone = COALESCE($5, phone),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, patch.Name, patch.Location, patch.Bio, patch.Phone))
	if err != nil {
		return nil, err
	}
	s.names.Remove(id)
	return user, nil
}

// UserStats считает завершённые обмены и пожертвования пользователя
func (s *Store) UserStats(ctx context.Context, id uuid.UUID) (models.UserStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var stats models.UserStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM swaps
				WHERE (requester_id = $1 OR responder_id = $1) AND status = 'COMPLETED'),
			(SELECT count(*) FROM items WHERE owner_id = $1 AND is_for_donation)
	`, id).Scan(&stats.TotalSwaps, &stats.TotalDonations)
	if err != nil {
		return stats, fmt.Errorf("ошибка при подсчёте статистики: %w", err)
	}
	return stats, nil
}

// DisplayName возвращает имя пользователя, кэшируя его в LRU
func (s *Store) DisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	if cached, ok := s.names.Get(id); ok {
		return cached.(string), nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var name string
	err := s.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("ошибка при получении имени пользователя: %w", err)
	}
	s.names.Add(id, name)
	return name, nil
}

// ToggleSavedItem добавляет вещь в избранное или убирает её оттуда
func (s *Store) ToggleSavedItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_items WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("ошибка при удалении из избранного: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO saved_items (user_id, item_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, itemID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("ошибка при добавлении в избранное: %w", err)
	}
	return true, nil
}

// ListSavedItems возвращает доступные вещи из избранного
func (s *Store) ListSavedItems(ctx context.Context, userID uuid.UUID) ([]*models.Item, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT `+itemColumns+itemFrom+`
		JOIN saved_items si ON si.item_id = i.id
		WHERE si.user_id = $1 AND i.status = 'AVAILABLE'
		ORDER BY i.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении избранного: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	return items, s.attachImages(ctx, items)
}
