package notification

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
)

// Handler обслуживает HTTP API уведомлений
type Handler struct {
	service *NotificationService
}

// NewHandler создаёт обработчики поверх сервиса
func NewHandler(service *NotificationService) *Handler {
	return &Handler{service: service}
}

// GetNotifications возвращает уведомления пользователя
func (h *Handler) GetNotifications(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// GetUnreadCount возвращает число непрочитанных уведомлений
func (h *Handler) GetUnreadCount(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	count, err := h.service.UnreadCount(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkAllRead отмечает все уведомления прочитанными
func (h *Handler) MarkAllRead(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkAllRead(c.Context(), userID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetupRoutes настраивает маршруты уведомлений
func (h *Handler) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	notifications := api.Group("/notifications", authMiddleware)

	notifications.Get("/", h.GetNotifications)
	notifications.Get("/unread-count", h.GetUnreadCount)
	notifications.Post("/read-all", h.MarkAllRead)
}
