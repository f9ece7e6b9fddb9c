package swap

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapit-api/internal/models"
)

// SetupRoutes настраивает маршруты для API обменов
func (h *Handler) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	// Все маршруты обменов требуют авторизации
	swaps := api.Group("/swaps", authMiddleware)

	swaps.Post("/", h.CreateSwap)
	swaps.Get("/", h.ListSwaps)
	swaps.Get("/:id", h.GetSwap)

	swaps.Post("/:id/accept", h.transition(models.SwapAccepted))
	swaps.Post("/:id/reject", h.transition(models.SwapRejected))
	swaps.Post("/:id/cancel", h.transition(models.SwapCancelled))
	swaps.Post("/:id/complete", h.transition(models.SwapCompleted))
}
