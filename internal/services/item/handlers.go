package item

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

// Handler обслуживает HTTP API вещей
type Handler struct {
	service *ItemService
}

// NewHandler создаёт обработчики поверх сервиса
func NewHandler(service *ItemService) *Handler {
	return &Handler{service: service}
}

// CreateItem обрабатывает создание новой вещи
func (h *Handler) CreateItem(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := middleware.BindJSON(c, &in); err != nil {
		return err
	}
	item, err := h.service.Create(c.Context(), userID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// ListItems возвращает публичный список вещей
func (h *Handler) ListItems(c fiber.Ctx) error {
	items, err := h.service.List(c.Context(), models.ItemFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Type:     c.Query("type"),
	})
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// GetItem возвращает доступную вещь по ID
func (h *Handler) GetItem(c fiber.Ctx) error {
	id, err := middleware.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// UpdateItem обрабатывает частичное обновление вещи
func (h *Handler) UpdateItem(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := middleware.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var patch models.ItemPatch
	if err := middleware.BindJSON(c, &patch); err != nil {
		return err
	}
	item, err := h.service.Update(c.Context(), userID, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// DeleteItem архивирует вещь
func (h *Handler) DeleteItem(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := middleware.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), userID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
