package user

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты профиля текущего пользователя
func (h *Handler) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	me := api.Group("/users/me", authMiddleware)

	me.Get("/", h.GetMe)
	me.Patch("/", h.UpdateMe)
	me.Get("/items", h.GetMyItems)

	// Избранное
	me.Get("/wishlist", h.GetWishlist)
	me.Post("/wishlist/:itemId", h.ToggleWishlist)
}
