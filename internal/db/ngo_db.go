package db

import (
	"context"
	"fmt"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

// ListNGOs возвращает активные организации по алфавиту
func (s *Store) ListNGOs(ctx context.Context) ([]models.NGO, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, city, country, categories, contact_email, website, is_active, created_at
		FROM ngos WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении организаций: %w", err)
	}
	defer rows.Close()

	ngos := []models.NGO{}
	for rows.Next() {
		var n models.NGO
		if err := rows.Scan(&n.ID, &n.Name, &n.Description, &n.City, &n.Country, &n.Categories,
			&n.ContactEmail, &n.Website, &n.IsActive, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка при чтении организации: %w", err)
		}
		ngos = append(ngos, n)
	}
	return ngos, rows.Err()
}

// CreateNGO сохраняет организацию
func (s *Store) CreateNGO(ctx context.Context, n *models.NGO) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if n.Categories == nil {
		n.Categories = []string{}
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO ngos (id, name, description, city, country, categories, contact_email, website, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, n.ID, n.Name, n.Description, n.City, n.Country, n.Categories, n.ContactEmail, n.Website, n.IsActive,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при создании организации: %w", err)
	}
	return nil
}
