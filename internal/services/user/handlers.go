package user

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
	"github.com/rajivgeraev/swapit-api/internal/models"
	"github.com/rajivgeraev/swapit-api/internal/services/item"
)

// Handler обслуживает HTTP API профиля
type Handler struct {
	service *UserService
	items   *item.ItemService
}

// NewHandler создаёт обработчики поверх сервисов профиля и вещей
func NewHandler(service *UserService, items *item.ItemService) *Handler {
	return &Handler{service: service, items: items}
}

// GetMe возвращает профиль со статистикой
func (h *Handler) GetMe(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.service.Profile(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// UpdateMe обновляет профиль
func (h *Handler) UpdateMe(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var patch models.ProfilePatch
	if err := middleware.BindJSON(c, &patch); err != nil {
		return err
	}
	user, err := h.service.UpdateProfile(c.Context(), userID, patch)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// GetMyItems возвращает все вещи пользователя
func (h *Handler) GetMyItems(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	items, err := h.items.ListMine(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// GetWishlist возвращает избранное
func (h *Handler) GetWishlist(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	items, err := h.service.Wishlist(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// ToggleWishlist переключает вещь в избранном
func (h *Handler) ToggleWishlist(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	itemID, err := middleware.ParamUUID(c, "itemId")
	if err != nil {
		return err
	}
	saved, err := h.service.ToggleSaved(c.Context(), userID, itemID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"saved": saved})
}
