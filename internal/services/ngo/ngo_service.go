package ngo

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

// Repository - хранилище организаций
type Repository interface {
	ListNGOs(ctx context.Context) ([]models.NGO, error)
	CreateNGO(ctx context.Context, n *models.NGO) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CreateInput - данные новой организации
type CreateInput struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	City         *string  `json:"city"`
	Country      *string  `json:"country"`
	Categories   []string `json:"categories"`
	ContactEmail *string  `json:"contact_email"`
	Website      *string  `json:"website"`
	IsActive     *bool    `json:"is_active"`
}

// searchIndex реализует fuzzy.Source по названию, городу и категориям
type searchIndex []models.NGO

func (s searchIndex) Len() int { return len(s) }

func (s searchIndex) String(i int) string {
	n := s[i]
	parts := []string{n.Name}
	if n.City != nil {
		parts = append(parts, *n.City)
	}
	parts = append(parts, n.Categories...)
	return strings.ToLower(strings.Join(parts, " "))
}

// NGOService представляет сервис организаций для пожертвований
type NGOService struct {
	repo Repository
}

// NewNGOService создает новый экземпляр NGOService
func NewNGOService(repo Repository) *NGOService {
	return &NGOService{repo: repo}
}

// List возвращает активные организации по алфавиту, а при заданном query - по релевантности
func (s *NGOService) List(ctx context.Context, query string) ([]models.NGO, error) {
	ngos, err := s.repo.ListNGOs(ctx)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения организаций", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return ngos, nil
	}

	matches := fuzzy.FindFrom(query, searchIndex(ngos))
	results := make([]models.NGO, len(matches))
	for i, match := range matches {
		results[i] = ngos[match.Index]
	}
	return results, nil
}

// Create добавляет организацию; доступно только администратору
func (s *NGOService) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*models.NGO, error) {
	actor, err := s.repo.GetUser(ctx, actorID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.Unauthorized("Пользователь не найден")
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка проверки прав", err)
	}
	if !actor.IsAdmin {
		return nil, apperr.Forbidden("Только для администраторов")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Название организации обязательно")
	}
	if in.ContactEmail != nil {
		if _, err := mail.ParseAddress(*in.ContactEmail); err != nil {
			return nil, apperr.Validation("Неверный формат email")
		}
	}
	if in.Website != nil {
		u, err := url.ParseRequestURI(*in.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, apperr.Validation("Неверный адрес сайта")
		}
	}

	ngo := &models.NGO{
		ID:           uuid.New(),
		Name:         name,
		Description:  in.Description,
		City:         in.City,
		Country:      in.Country,
		Categories:   in.Categories,
		ContactEmail: in.ContactEmail,
		Website:      in.Website,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	if ngo.Categories == nil {
		ngo.Categories = []string{}
	}
	if err := s.repo.CreateNGO(ctx, ngo); err != nil {
		return nil, apperr.Internal("Ошибка создания организации", err)
	}
	return ngo, nil
}
