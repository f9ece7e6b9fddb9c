package chat

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/middleware"
)

// Handler обслуживает HTTP API чатов
type Handler struct {
	service *ChatService
}

// NewHandler создаёт обработчики поверх сервиса
func NewHandler(service *ChatService) *Handler {
	return &Handler{service: service}
}

// CreateDirectRoom возвращает личную комнату с другим пользователем
func (h *Handler) CreateDirectRoom(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		OtherUserID string  `json:"other_user_id"`
		ItemID      *string `json:"item_id"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	otherID, err := uuid.Parse(req.OtherUserID)
	if err != nil {
		return apperr.Validation("Неверный формат other_user_id")
	}
	var itemID *uuid.UUID
	if req.ItemID != nil && *req.ItemID != "" {
		id, err := uuid.Parse(*req.ItemID)
		if err != nil {
			return apperr.Validation("Неверный формат item_id")
		}
		itemID = &id
	}

	room, created, err := h.service.GetOrCreateDirectRoom(c.Context(), userID, otherID, itemID)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(room)
}

// DeleteContact скрывает переписки с контактом
func (h *Handler) DeleteContact(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	contactID, err := middleware.ParamUUID(c, "contactId")
	if err != nil {
		return err
	}
	if err := h.service.DeleteContact(c.Context(), userID, contactID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetConversations возвращает ленту переписок
func (h *Handler) GetConversations(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	conversations, err := h.service.ListConversations(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(conversations)
}

// GetMessages возвращает сообщения комнаты
func (h *Handler) GetMessages(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	roomID, err := middleware.ParamUUID(c, "roomId")
	if err != nil {
		return err
	}
	messages, err := h.service.ListMessages(c.Context(), userID, roomID)
	if err != nil {
		return err
	}
	return c.JSON(messages)
}

// SendMessage отправляет сообщение в комнату
func (h *Handler) SendMessage(c fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	roomID, err := middleware.ParamUUID(c, "roomId")
	if err != nil {
		return err
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	msg, err := h.service.CreateMessage(c.Context(), userID, roomID, req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
