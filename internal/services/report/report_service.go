package report

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

const minReasonLen = 3

// Repository - хранилище жалоб
type Repository interface {
	CreateReport(ctx context.Context, r *models.Report) error
}

// CreateInput - данные жалобы
type CreateInput struct {
	TargetUserID *uuid.UUID `json:"target_user_id"`
	TargetItemID *uuid.UUID `json:"target_item_id"`
	TargetSwapID *uuid.UUID `json:"target_swap_id"`
	Reason       string     `json:"reason"`
	Details      *string    `json:"details"`
}

// ReportService принимает жалобы пользователей
type ReportService struct {
	repo Repository
}

// NewReportService создает новый экземпляр ReportService
func NewReportService(repo Repository) *ReportService {
	return &ReportService{repo: repo}
}

// Create сохраняет жалобу в статусе OPEN
func (s *ReportService) Create(ctx context.Context, reporterID uuid.UUID, in CreateInput) (*models.Report, error) {
	reason := strings.TrimSpace(in.Reason)
	if utf8.RuneCountInString(reason) < minReasonLen {
		return nil, apperr.Validation("Причина должна содержать не менее 3 символов")
	}
	if in.TargetUserID == nil && in.TargetItemID == nil && in.TargetSwapID == nil {
		return nil, apperr.Validation("Укажите, на что жалоба")
	}

	r := &models.Report{
		ID:           uuid.New(),
		ReporterID:   reporterID,
		TargetUserID: in.TargetUserID,
		TargetItemID: in.TargetItemID,
		TargetSwapID: in.TargetSwapID,
		Reason:       reason,
		Details:      in.Details,
		Status:       models.ReportOpen,
	}
	if err := s.repo.CreateReport(ctx, r); err != nil {
		if errors.Is(err, db.ErrInvalidReference) {
			return nil, apperr.NotFound("Объект жалобы не найден")
		}
		return nil, apperr.Internal("Ошибка сохранения жалобы", err)
	}
	return r, nil
}
