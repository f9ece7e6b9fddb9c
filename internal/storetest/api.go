package storetest

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
	"github.com/rajivgeraev/swapit-api/internal/utils"
)

// API - fiber-приложение с настоящим AuthMiddleware для тестов маршрутов
type API struct {
	App *fiber.App
	JWT *utils.JWTService
}

// NewAPI создаёт приложение с тем же обработчиком ошибок, что и в main
func NewAPI() *API {
	return &API{
		App: fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(false)}),
		JWT: utils.NewJWTService("0123456789abcdef0123456789abcdef", time.Hour),
	}
}

// Router возвращает группу /api
func (a *API) Router() fiber.Router {
	return a.App.Group("/api")
}

// Auth возвращает middleware авторизации на общем JWT
func (a *API) Auth() fiber.Handler {
	return middleware.AuthMiddleware(a.JWT)
}

// Call выполняет запрос от имени user; uuid.Nil означает анонимный запрос
func (a *API) Call(t testing.TB, method, path string, user uuid.UUID, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		token, err := a.JWT.GenerateToken(user)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.App.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

// ExpectStatus проверяет код ответа
func ExpectStatus(t testing.TB, name string, got, want int, body []byte) {
	t.Helper()
	if got != want {
		t.Errorf("%s: status = %d, want %d (%s)", name, got, want, body)
	}
}
