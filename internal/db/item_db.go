package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

const itemColumns = `
	i.id, i.owner_id, i.title, i.description, i.category, i.condition, i.location,
	i.status, i.is_for_swap, i.is_for_donation, i.ngo_id, i.tags, i.created_at, i.updated_at,
	u.name, u.rating, u.rating_count, u.location`

const itemFrom = ` FROM items i JOIN users u ON u.id = i.owner_id`

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item
	var condition, status string
	owner := models.UserSummary{}

	err := row.Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Category, &condition, &item.Location,
		&status, &item.IsForSwap, &item.IsForDonation, &item.NgoID, &item.Tags, &item.CreatedAt, &item.UpdatedAt,
		&owner.Name, &owner.Rating, &owner.RatingCount, &owner.Location,
	)
	if err != nil {
		return nil, err
	}
	item.Condition = models.ItemCondition(condition)
	item.Status = models.ItemStatus(status)
	owner.ID = item.OwnerID
	item.Owner = &owner
	if item.Tags == nil {
		item.Tags = []string{}
	}
	item.Images = []models.ItemImage{}
	return &item, nil
}

func collectItems(rows pgx.Rows) ([]*models.Item, error) {
	defer rows.Close()
	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при чтении вещи: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// attachImages загружает изображения одним запросом для всех вещей
func (s *Store) attachImages(ctx context.Context, items []*models.Item) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Item, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		byID[item.ID] = item
		ids = append(ids, item.ID.String())
	}

	rows, err := s.pool.Query(ctx, `
		SELECT item_id, url, position FROM item_images
		WHERE item_id = ANY($1::uuid[])
		ORDER BY item_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("ошибка при получении изображений: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID uuid.UUID
		var img models.ItemImage
		if err := rows.Scan(&itemID, &img.URL, &img.Position); err != nil {
			return fmt.Errorf("ошибка при чтении изображения: %w", err)
		}
		if item, ok := byID[itemID]; ok {
			item.Images = append(item.Images, img)
		}
	}
	return rows.Err()
}

// CreateItem сохраняет вещь вместе с изображениями
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if item.Tags == nil {
		item.Tags = []string{}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO items (id, owner_id, title, description, category, condition, location,
			status, is_for_swap, is_for_donation, ngo_id, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, item.ID, item.OwnerID, item.Title, item.Description, item.Category, string(item.Condition), item.Location,
		string(item.Status), item.IsForSwap, item.IsForDonation, item.NgoID, item.Tags,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("ошибка при создании вещи: %w", err)
	}

	for _, img := range item.Images {
		if _, err = tx.Exec(ctx, `
			INSERT INTO item_images (item_id, url, position) VALUES ($1, $2, $3)
		`, item.ID, img.URL, img.Position); err != nil {
			return fmt.Errorf("ошибка при сохранении изображения: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}

// GetItem возвращает вещь в любом статусе
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	item, err := scanItem(s.pool.QueryRow(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении вещи: %w", err)
	}
	if err = s.attachImages(ctx, []*models.Item{item}); err != nil {
		return nil, err
	}
	return item, nil
}

// escapeLike экранирует спецсимволы шаблона ILIKE
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListAvailableItems возвращает доступные вещи по фильтру, новые первыми
func (s *Store) ListAvailableItems(ctx context.Context, filter models.ItemFilter) ([]*models.Item, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	conds := []string{"i.status = 'AVAILABLE'"}
	var args []any
	if filter.Query != "" {
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		conds = append(conds, fmt.Sprintf("(i.title ILIKE $%d OR i.description ILIKE $%d)", len(args), len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("i.category = $%d", len(args)))
	}
	switch filter.Type {
	case "swap":
		conds = append(conds, "i.is_for_swap")
	case "donation":
		conds = append(conds, "i.is_for_donation")
	}

	query := `SELECT ` + itemColumns + itemFrom + ` WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY i.created_at DESC`
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка вещей: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	return items, s.attachImages(ctx, items)
}

// ListItemsByOwner возвращает все вещи владельца
func (s *Store) ListItemsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Item, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.owner_id = $1 ORDER BY i.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении вещей пользователя: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	return items, s.attachImages(ctx, items)
}

// listItemsByIDs загружает вещи по списку идентификаторов
func (s *Store) listItemsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Item, error) {
	out := make(map[uuid.UUID]*models.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.id = ANY($1::uuid[])`, strIDs)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении вещей: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}
	if err = s.attachImages(ctx, items); err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

// UpdateItem сохраняет изменяемые поля, пока вещь остаётся доступной
func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if item.Tags == nil {
		item.Tags = []string{}
	}

	err := s.pool.QueryRow(ctx, `
		UPDATE items
		SET title = $2, description = $3, category = $4, condition = $5, location = $6,
			is_for_swap = $7, is_for_donation = $8, ngo_id = $9, tags = $10, updated_at = now()
		WHERE id = $1 AND status = 'AVAILABLE'
		RETURNING updated_at
	`, item.ID, item.Title, item.Description, item.Category, string(item.Condition), item.Location,
		item.IsForSwap, item.IsForDonation, item.NgoID, item.Tags,
	).Scan(&item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStateChanged
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("ошибка при обновлении вещи: %w", err)
	}
	return nil
}

// SetItemStatus переводит вещь из статуса from в to
func (s *Store) SetItemStatus(ctx context.Context, id uuid.UUID, from, to models.ItemStatus) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		UPDATE items SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("ошибка при смене статуса вещи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStateChanged
	}
	return nil
}
