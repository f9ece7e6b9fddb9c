package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
)

// Handler обслуживает HTTP API авторизации
type Handler struct {
	service *AuthService
}

// NewHandler создаёт обработчики поверх сервиса
func NewHandler(service *AuthService) *Handler {
	return &Handler{service: service}
}

// SetupRoutes регистрирует маршруты авторизации; все они публичные
func (h *Handler) SetupRoutes(api fiber.Router) {
	auth := api.Group("/auth")

	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/telegram", h.TelegramAuth)
}

// Register регистрирует пользователя по email
func (h *Handler) Register(c fiber.Ctx) error {
	var in RegisterInput
	if err := middleware.BindJSON(c, &in); err != nil {
		return err
	}
	session, err := h.service.Register(c.Context(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// Login выполняет вход по email и паролю
func (h *Handler) Login(c fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := middleware.BindJSON(c, &req); err != nil {
		return err
	}
	session, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// TelegramAuth проверяет initData, создает JWT и возвращает его
func (h *Handler) TelegramAuth(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}
	if err := middleware.BindJSON(c, &payload); err != nil {
		return err
	}
	session, err := h.service.TelegramLogin(c.Context(), payload.InitData)
	if err != nil {
		return err
	}
	return c.JSON(session)
}
