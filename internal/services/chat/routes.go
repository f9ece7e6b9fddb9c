package chat

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты для API чатов
func (h *Handler) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	// Все маршруты чатов требуют авторизации
	chat := api.Group("/chat", authMiddleware)

	chat.Post("/direct", h.CreateDirectRoom)
	chat.Delete("/contacts/:contactId", h.DeleteContact)
	chat.Get("/conversations", h.GetConversations)
	chat.Get("/rooms/:roomId/messages", h.GetMessages)
	chat.Post("/rooms/:roomId/messages", h.SendMessage)
}
