package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
	"github.com/rajivgeraev/swapit-api/internal/models"
	"github.com/rajivgeraev/swapit-api/internal/storetest"
	"github.com/rajivgeraev/swapit-api/internal/utils"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func seed(t *testing.T, store *storetest.Store, userID uuid.UUID, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		n := &models.Notification{ID: uuid.New(), UserID: userID, Type: models.NotifySwapRequest, Message: "новое предложение"}
		if err := store.CreateNotification(context.Background(), n); err != nil {
			t.Fatalf("CreateNotification() error = %v", err)
		}
	}
}

func TestNotificationService(t *testing.T) {
	store := storetest.New()
	alice, bob := store.AddUser("Алиса"), store.AddUser("Боб")
	seed(t, store, alice.ID, ListLimit+5)
	seed(t, store, bob.ID, 2)
	svc := NewNotificationService(store)
	ctx := context.Background()

	list, err := svc.List(ctx, alice.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != ListLimit {
		t.Fatalf("List() returned %d, want %d", len(list), ListLimit)
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Fatalf("List() not newest first at %d", i)
		}
	}

	if err := svc.MarkAllRead(ctx, alice.ID); err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, alice.ID); n != 0 {
		t.Errorf("alice unread = %d, want 0", n)
	}
	if n, _ := svc.UnreadCount(ctx, bob.ID); n != 2 {
		t.Errorf("bob unread = %d, want 2", n)
	}
}

func TestRoutes(t *testing.T) {
	store := storetest.New()
	alice := store.AddUser("Алиса")
	seed(t, store, alice.ID, 3)

	jwtService := utils.NewJWTService(testSecret, time.Hour)
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(false)})
	NewHandler(NewNotificationService(store)).SetupRoutes(app.Group("/api"), middleware.AuthMiddleware(jwtService))

	call := func(method, path string, user uuid.UUID) (int, []byte) {
		t.Helper()
		req := httptest.NewRequest(method, path, nil)
		if user != uuid.Nil {
			token, err := jwtService.GenerateToken(user)
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, data
	}

	if status, _ := call(http.MethodGet, "/api/notifications", uuid.Nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous list: status = %d", status)
	}

	status, body := call(http.MethodGet, "/api/notifications/unread-count", alice.ID)
	if status != http.StatusOK || string(body) != `{"count":3}` {
		t.Fatalf("unread-count: status = %d body = %s", status, body)
	}

	if status, _ := call(http.MethodPost, "/api/notifications/read-all", alice.ID); status != http.StatusNoContent {
		t.Fatalf("read-all: status = %d", status)
	}

	status, body = call(http.MethodGet, "/api/notifications", alice.ID)
	if status != http.StatusOK {
		t.Fatalf("list: status = %d", status)
	}
	var list []models.Notification
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || !list[0].IsRead {
		t.Errorf("unexpected list after read-all: %+v", list)
	}
}
