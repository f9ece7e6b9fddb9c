package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
)

// ErrorHandler переводит ошибки обработчиков в JSON-ответ {"error": ...}
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()

		var appErr *apperr.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			code = appErr.Status
			message = appErr.Message
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		}

		if code >= fiber.StatusInternalServerError {
			log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
			if production {
				message = "Внутренняя ошибка сервера"
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}

// CurrentUser возвращает пользователя запроса или ошибку 401
func CurrentUser(c fiber.Ctx) (uuid.UUID, error) {
	userID, ok := UserID(c)
	if !ok {
		return uuid.Nil, apperr.Unauthorized("Пользователь не авторизован")
	}
	return userID, nil
}

// ParamUUID разбирает параметр маршрута как UUID
func ParamUUID(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Неверный формат ID")
	}
	return id, nil
}

// BindJSON разбирает тело запроса
func BindJSON(c fiber.Ctx, dst any) error {
	if err := c.Bind().Body(dst); err != nil {
		return apperr.Validation("Неверный формат данных")
	}
	return nil
}
