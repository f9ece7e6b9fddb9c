package rating

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
)

// Handler обслуживает HTTP API оценок
type Handler struct {
	service *RatingService
}

// NewHandler создаёт обработчики поверх сервиса
func NewHandler(service *RatingService) *Handler {
	return &Handler{service: service}
}

// RateSwap обрабатывает оценку участника обмена
func (h *Handler) RateSwap(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	swapID, err := middleware.ParamUUID(c, "swapId")
	if err != nil {
		return err
	}
	var req struct {
		Score int `json:"score"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	r, err := h.service.RateUser(c.Context(), userID, swapID, req.Score)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// SetupRoutes настраивает маршруты для API оценок
func (h *Handler) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	api.Post("/ratings/swaps/:swapId", h.RateSwap, authMiddleware)
}
