package ngo

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
)

// Handler обслуживает HTTP API организаций
type Handler struct {
	service *NGOService
}

// NewHandler создаёт обработчики поверх сервиса
func NewHandler(service *NGOService) *Handler {
	return &Handler{service: service}
}

// ListNGOs возвращает активные организации
func (h *Handler) ListNGOs(c fiber.Ctx) error {
	ngos, err := h.service.List(c.Context(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(ngos)
}

// CreateNGO добавляет организацию
func (h *Handler) CreateNGO(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := middleware.BindJSON(c, &in); err != nil {
		return err
	}
	ngo, err := h.service.Create(c.Context(), userID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ngo)
}

// SetupRoutes настраивает маршруты организаций
func (h *Handler) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	ngos := api.Group("/ngos")

	ngos.Get("/", h.ListNGOs)
	ngos.Post("/", h.CreateNGO, authMiddleware)
}
