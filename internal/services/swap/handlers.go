package swap

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/middleware"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

// Handler обслуживает HTTP API обменов
type Handler struct {
	service *SwapService
}

// NewHandler создаёт обработчики поверх сервиса
func NewHandler(service *SwapService) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	RequestedItemID string `json:"requested_item_id"`
	OfferedItemID   string `json:"offered_item_id"`
}

// CreateSwap обрабатывает создание предложения обмена
func (h *Handler) CreateSwap(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	requested, err := uuid.Parse(req.RequestedItemID)
	if err != nil {
		return apperr.Validation("Неверный формат requested_item_id")
	}
	offered, err := uuid.Parse(req.OfferedItemID)
	if err != nil {
		return apperr.Validation("Неверный формат offered_item_id")
	}

	swap, err := h.service.Create(c.Context(), userID, requested, offered)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(swap)
}

// ListSwaps возвращает обмены текущего пользователя
func (h *Handler) ListSwaps(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	swaps, err := h.service.ListForUser(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(swaps)
}

// GetSwap возвращает обмен по ID
func (h *Handler) GetSwap(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := middleware.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	swap, err := h.service.Get(c.Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(swap)
}

// transition возвращает обработчик перехода в target
func (h *Handler) transition(target models.SwapStatus) fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, err := middleware.CurrentUser(c)
		if err != nil {
			return err
		}
		id, err := middleware.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		swap, err := h.service.ChangeStatus(c.Context(), userID, id, target)
		if err != nil {
			return err
		}
		return c.JSON(swap)
	}
}
