package auth

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"golang.org/x/crypto/bcrypt"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/models"
	"github.com/rajivgeraev/swapit-api/internal/utils"
)

// MinPasswordLen - минимальная длина пароля
const MinPasswordLen = 8

// initDataTTL - сколько действительны данные запуска Mini App
const initDataTTL = 24 * time.Hour

// Repository - хранилище пользователей
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertTelegramUser(ctx context.Context, tg models.TelegramUser) (*models.User, error)
}

var (
	errInvalidCredentials = apperr.Unauthorized("Неверный email или пароль")
	errEmailTaken         = apperr.Conflict("Email уже используется")
	errTelegramDisabled   = apperr.NotFound("Вход через Telegram не настроен")
	errInvalidTelegram    = apperr.Unauthorized("Неверные данные Telegram")
)

// Session - ответ на успешную авторизацию
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// RegisterInput - данные регистрации по email
type RegisterInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Location *string `json:"location"`
	Phone    *string `json:"phone"`
}

// AuthService – структура для обработки авторизации
type AuthService struct {
	repo       Repository
	jwtService *utils.JWTService
	botToken   string
}

// NewAuthService – конструктор AuthService; пустой botToken отключает вход через Telegram
func NewAuthService(repo Repository, jwtService *utils.JWTService, botToken string) *AuthService {
	return &AuthService{
		repo:       repo,
		jwtService: jwtService,
		botToken:   botToken,
	}
}

// Register создаёт пользователя с паролем и сразу выдаёт токен
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLen {
		return nil, apperr.Validation("Пароль должен содержать не менее 8 символов")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Имя обязательно")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("Ошибка регистрации", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        &email,
		PasswordHash: string(hash),
		Name:         name,
		Location:     in.Location,
		Phone:        in.Phone,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, errEmailTaken
		}
		log.Printf("Ошибка при создании пользователя: %v", err)
		return nil, apperr.Internal("Ошибка регистрации", err)
	}
	return s.session(user)
}

// Login проверяет пароль и выдаёт токен
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLen {
		return nil, apperr.Validation("Пароль должен содержать не менее 8 символов")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка входа", err)
	}
	if user.PasswordHash == "" {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return s.session(user)
}

// TelegramLogin проверяет initData Mini App, создаёт или обновляет пользователя и выдаёт токен
func (s *AuthService) TelegramLogin(ctx context.Context, rawInitData string) (*Session, error) {
	if s.botToken == "" {
		return nil, errTelegramDisabled
	}

	// Проверяем initData
	if err := initdata.Validate(rawInitData, s.botToken, initDataTTL); err != nil {
		return nil, errInvalidTelegram
	}

	// Парсим данные
	data, err := initdata.Parse(rawInitData)
	if err != nil {
		return nil, apperr.Validation("Не удалось разобрать данные Telegram")
	}
	if data.User.ID == 0 {
		return nil, apperr.Validation("В данных Telegram нет пользователя")
	}

	user, err := s.repo.UpsertTelegramUser(ctx, models.TelegramUser{
		TelegramID: data.User.ID,
		Username:   data.User.Username,
		FirstName:  data.User.FirstName,
		LastName:   data.User.LastName,
		PhotoURL:   data.User.PhotoURL,
	})
	if err != nil {
		log.Printf("Ошибка при сохранении пользователя Telegram: %v", err)
		return nil, apperr.Internal("Ошибка авторизации", err)
	}
	return s.session(user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, apperr.Internal("Ошибка создания токена", err)
	}
	return &Session{User: user, Token: token}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("Неверный формат email")
	}
	return email, nil
}
