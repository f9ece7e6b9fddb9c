package report

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
)

// Handler обслуживает HTTP API жалоб
type Handler struct {
	service *ReportService
}

// NewHandler создаёт обработчики поверх сервиса
func NewHandler(service *ReportService) *Handler {
	return &Handler{service: service}
}

// CreateReport принимает жалобу
func (h *Handler) CreateReport(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := middleware.BindJSON(c, &in); err != nil {
		return err
	}
	r, err := h.service.Create(c.Context(), userID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// SetupRoutes настраивает маршруты жалоб
func (h *Handler) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	api.Post("/reports", h.CreateReport, authMiddleware)
}
