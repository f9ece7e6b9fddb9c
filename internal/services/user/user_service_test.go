package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/middleware"
	"github.com/rajivgeraev/swapit-api/internal/models"
	"github.com/rajivgeraev/swapit-api/internal/services/item"
	"github.com/rajivgeraev/swapit-api/internal/storetest"
	"github.com/rajivgeraev/swapit-api/internal/utils"
)

func TestProfile_Stats(t *testing.T) {
	store := storetest.New()
	svc := NewUserService(store)
	ctx := context.Background()
	alice, bob := store.AddUser("Алиса"), store.AddUser("Боб")

	swap := &models.Swap{
		ID:              uuid.New(),
		RequesterID:     alice.ID,
		ResponderID:     bob.ID,
		RequestedItemID: store.AddItem(bob.ID, "гитара").ID,
		OfferedItemID:   store.AddItem(alice.ID, "самокат").ID,
		Status:          models.SwapPending,
	}
	if _, err := store.CreateSwapWithRoom(ctx, swap); err != nil {
		t.Fatal(err)
	}
	if _, err := store.TransitionSwap(ctx, swap.ID, []models.SwapStatus{models.SwapPending}, models.SwapAccepted); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CompleteSwap(ctx, swap.ID, 10); err != nil {
		t.Fatal(err)
	}

	profile, err := svc.Profile(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if profile.Stats.TotalSwaps != 1 || profile.User.SwapPoints != 10 {
		t.Errorf("profile = %+v stats = %+v", profile.User, profile.Stats)
	}

	if _, err := svc.Profile(ctx, uuid.New()); apperr.StatusOf(err) != http.StatusNotFound {
		t.Errorf("missing user: err = %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	store := storetest.New()
	svc := NewUserService(store)
	ctx := context.Background()
	alice := store.AddUser("Алиса")

	blank := "   "
	if _, err := svc.UpdateProfile(ctx, alice.ID, models.ProfilePatch{Name: &blank}); apperr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("blank name: err = %v", err)
	}

	name, city := "  Алиса К.  ", "Казань"
	user, err := svc.UpdateProfile(ctx, alice.ID, models.ProfilePatch{Name: &name, Location: &city})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.Name != "Алиса К." || user.Location == nil || *user.Location != "Казань" || user.Bio != nil {
		t.Errorf("unexpected profile: %+v", user)
	}
}

func TestWishlist(t *testing.T) {
	store := storetest.New()
	svc := NewUserService(store)
	ctx := context.Background()
	alice, bob := store.AddUser("Алиса"), store.AddUser("Боб")
	guitar := store.AddItem(bob.ID, "гитара")
	bike := store.AddItem(bob.ID, "велосипед")

	empty, err := svc.Wishlist(ctx, alice.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty wishlist = %v, %v", empty, err)
	}

	for _, id := range []uuid.UUID{guitar.ID, bike.ID} {
		if saved, err := svc.ToggleSaved(ctx, alice.ID, id); err != nil || !saved {
			t.Fatalf("ToggleSaved() = %v, %v", saved, err)
		}
	}
	if saved, err := svc.ToggleSaved(ctx, alice.ID, guitar.ID); err != nil || saved {
		t.Fatalf("second toggle = %v, %v", saved, err)
	}
	if _, err := svc.ToggleSaved(ctx, alice.ID, uuid.New()); apperr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("unknown item: err = %v", err)
	}

	// Обменянные вещи из избранного не показываются
	if err := store.SetItemStatus(ctx, guitar.ID, models.ItemAvailable, models.ItemSwapped); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ToggleSaved(ctx, alice.ID, guitar.ID); err != nil {
		t.Fatal(err)
	}

	list, err := svc.Wishlist(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Wishlist() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != bike.ID {
		t.Errorf("wishlist = %+v, want only the bike", list)
	}
}

func TestRoutes(t *testing.T) {
	store := storetest.New()
	alice := store.AddUser("Алиса")
	own := store.AddItem(alice.ID, "лампа")

	jwtService := utils.NewJWTService("0123456789abcdef0123456789abcdef", time.Hour)
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(false)})
	NewHandler(NewUserService(store), item.NewItemService(store)).
		SetupRoutes(app.Group("/api"), middleware.AuthMiddleware(jwtService))

	token, err := jwtService.GenerateToken(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	call := func(method, path, body string) (int, []byte) {
		t.Helper()
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, r)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, data
	}

	status, body := call(http.MethodGet, "/api/users/me", "")
	if status != http.StatusOK {
		t.Fatalf("get me: status = %d body = %s", status, body)
	}
	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		t.Fatal(err)
	}
	if profile.User == nil || profile.User.ID != alice.ID {
		t.Errorf("profile = %s", body)
	}

	status, body = call(http.MethodPatch, "/api/users/me", `{"bio":"люблю обмены"}`)
	if status != http.StatusOK || !strings.Contains(string(body), "люблю обмены") {
		t.Fatalf("patch me: status = %d body = %s", status, body)
	}

	status, body = call(http.MethodGet, "/api/users/me/items", "")
	if status != http.StatusOK || !strings.Contains(string(body), own.ID.String()) {
		t.Fatalf("my items: status = %d body = %s", status, body)
	}

	status, body = call(http.MethodPost, "/api/users/me/wishlist/"+own.ID.String(), "")
	if status != http.StatusOK || string(body) != `{"saved":true}` {
		t.Fatalf("toggle: status = %d body = %s", status, body)
	}

	status, _ = call(http.MethodPost, "/api/users/me/wishlist/not-a-uuid", "")
	if status != http.StatusBadRequest {
		t.Fatalf("toggle malformed id: status = %d", status)
	}
}
