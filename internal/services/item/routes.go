package item

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты для API вещей
func (h *Handler) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	items := api.Group("/items")

	// Публичные маршруты
	items.Get("/", h.ListItems)
	items.Get("/:id", h.GetItem)

	// Защищенные маршруты
	items.Post("/", h.CreateItem, authMiddleware)
	items.Patch("/:id", h.UpdateItem, authMiddleware)
	items.Delete("/:id", h.DeleteItem, authMiddleware)
}
