package cloudinary

import (
	"github.com/gofiber/fiber/v3"
)

// GenerateUploadParams отдаёт клиенту подписанные параметры загрузки
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	params, err := s.UploadParams()
	if err != nil {
		return err
	}
	return c.JSON(params)
}

// SetupRoutes настраивает маршрут получения параметров загрузки
func (s *CloudinaryService) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	api.Get("/upload/params", s.GenerateUploadParams, authMiddleware)
}
