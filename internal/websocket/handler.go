package websocket

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rajivgeraev/swapit-api/internal/middleware"
	"github.com/rajivgeraev/swapit-api/internal/models"
	"github.com/rajivgeraev/swapit-api/internal/utils"
)

// ChatService - операции чата, доступные через WebSocket
type ChatService interface {
	Authorize(ctx context.Context, userID, roomID uuid.UUID) (*models.ChatRoom, error)
	CreateMessage(ctx context.Context, userID, roomID uuid.UUID, body string) (*models.Message, error)
}

// Handler принимает WebSocket подключения на /ws
type Handler struct {
	jwtService *utils.JWTService
	chat       ChatService
	manager    *Manager
	upgrader   websocket.Upgrader
}

// NewHandler создаёт обработчик; origins - разрешённые источники, "*" разрешает любой
func NewHandler(jwtService *utils.JWTService, chat ChatService, manager *Manager, origins []string) *Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Handler{
		jwtService: jwtService,
		chat:       chat,
		manager:    manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeHTTP проверяет токен до апгрейда и запускает клиента
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		http.Error(w, `{"error":"Отсутствует токен авторизации"}`, http.StatusUnauthorized)
		return
	}
	userID, err := h.jwtService.ExtractUserID(token)
	if err != nil {
		http.Error(w, `{"error":"Недействительный токен"}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		return
	}
	NewClient(userID, conn, h.manager, h.chat).Start()
}
