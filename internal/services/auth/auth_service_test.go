package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/storetest"
	"github.com/rajivgeraev/swapit-api/internal/utils"
)

const (
	testSecret   = "test-secret-that-is-long-enough-for-hs256"
	testBotToken = "123456:TEST-bot-token"
)

func newService(botToken string) (*AuthService, *utils.JWTService, *storetest.Store) {
	store := storetest.New()
	jwtService := utils.NewJWTService(testSecret, time.Hour)
	return NewAuthService(store, jwtService, botToken), jwtService, store
}

// signInitData подписывает параметры так же, как это делает Telegram
func signInitData(params url.Values, botToken string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	signed := url.Values{}
	for k := range params {
		signed.Set(k, params.Get(k))
	}
	signed.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return signed.Encode()
}

func telegramInitData(telegramID int64, firstName, photo string) string {
	user := `{"id":` + strconv.FormatInt(telegramID, 10) + `,"first_name":"` + firstName + `","username":"tg_user","photo_url":"` + photo + `"}`
	return signInitData(url.Values{
		"auth_date": {strconv.FormatInt(time.Now().Unix(), 10)},
		"query_id":  {"AAHdF6IQAAAAAN0XohDhrOrc"},
		"user":      {user},
	}, testBotToken)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, jwtService, _ := newService("")
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterInput{Email: " Anna@Example.com ", Password: "secret-pass", Name: "Анна"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if session.User.Email == nil || *session.User.Email != "anna@example.com" {
		t.Errorf("email not normalized: %v", session.User.Email)
	}
	if session.User.PasswordHash == "" || session.User.PasswordHash == "secret-pass" {
		t.Errorf("password must be stored as a hash")
	}
	userID, err := jwtService.ExtractUserID(session.Token)
	if err != nil || userID != session.User.ID {
		t.Fatalf("token subject = %v, err = %v", userID, err)
	}

	_, err = svc.Register(ctx, RegisterInput{Email: "anna@example.com", Password: "another-pass", Name: "Анна"})
	if apperr.StatusOf(err) != http.StatusConflict {
		t.Fatalf("duplicate email: err = %v", err)
	}

	login, err := svc.Login(ctx, "ANNA@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.User.ID != session.User.ID {
		t.Errorf("login returned another user")
	}

	_, err = svc.Login(ctx, "anna@example.com", "wrong-pass")
	if apperr.StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("wrong password: err = %v", err)
	}
	_, err = svc.Login(ctx, "nobody@example.com", "secret-pass")
	if apperr.StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("unknown email: err = %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newService("")
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "secret-pass", Name: "Анна"}},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short", Name: "Анна"}},
		{"empty name", RegisterInput{Email: "a@example.com", Password: "secret-pass", Name: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			if apperr.StatusOf(err) != http.StatusBadRequest {
				t.Errorf("Register() err = %v, want 400", err)
			}
		})
	}
}

func TestTelegramLogin(t *testing.T) {
	svc, _, store := newService(testBotToken)
	ctx := context.Background()

	first, err := svc.TelegramLogin(ctx, telegramInitData(42, "Иван", "https://t.me/a.jpg"))
	if err != nil {
		t.Fatalf("TelegramLogin() error = %v", err)
	}
	if first.User.Name != "Иван" || !first.User.IsVerified {
		t.Errorf("unexpected telegram user: %+v", first.User)
	}

	// Повторный вход обновляет аватар, но не создаёт нового пользователя
	second, err := svc.TelegramLogin(ctx, telegramInitData(42, "Ваня", "https://t.me/b.jpg"))
	if err != nil {
		t.Fatalf("TelegramLogin() error = %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Fatalf("re-login created another user")
	}
	stored := store.User(first.User.ID)
	if stored.AvatarURL == nil || *stored.AvatarURL != "https://t.me/b.jpg" || stored.Name != "Иван" {
		t.Errorf("stored user = %+v", stored)
	}

	tampered := strings.Replace(telegramInitData(42, "Иван", ""), "auth_date=", "auth_date=1", 1)
	if _, err := svc.TelegramLogin(ctx, tampered); apperr.StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("tampered init data: err = %v", err)
	}
}

func TestTelegramLogin_Disabled(t *testing.T) {
	svc, _, _ := newService("")
	_, err := svc.TelegramLogin(context.Background(), telegramInitData(42, "Иван", ""))
	if apperr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("TelegramLogin() err = %v, want 404", err)
	}
}
