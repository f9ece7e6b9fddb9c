package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

// MaxMessageLen - максимальная длина сообщения в символах
const MaxMessageLen = 5000

// Repository - хранилище комнат и сообщений
type Repository interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*models.ChatRoom, error)
	GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetOrCreateDirectRoom(ctx context.Context, pair models.Pair, itemID *uuid.UUID) (*models.ChatRoom, bool, error)
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	DisplayName(ctx context.Context, id uuid.UUID) (string, error)
	ListRoomSummaries(ctx context.Context, userID uuid.UUID) ([]models.RoomSummary, error)
	HideContact(ctx context.Context, userID, contactID uuid.UUID) error
	HiddenContacts(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Broadcaster доставляет новые сообщения подписчикам комнаты в реальном времени
type Broadcaster interface {
	BroadcastMessage(msg models.Message)
}

var (
	errRoomNotFound = apperr.NotFound("Комната не найдена")
	errNotMember    = apperr.Forbidden("Вы не участник этой комнаты")
	errUnknownScope = apperr.Validation("Неизвестный тип комнаты")
	errEmptyMessage = apperr.Validation("Сообщение не может быть пустым")
	errLongMessage  = apperr.Validation("Сообщение слишком длинное")
	errSelfChat     = apperr.Validation("Нельзя начать чат с самим собой")
	errSelfContact  = apperr.Validation("Нельзя удалить самого себя из контактов")
	errUserNotFound = apperr.NotFound("Пользователь не найден")
)

// ChatService представляет сервис для работы с чатами
type ChatService struct {
	repo        Repository
	broadcaster Broadcaster
}

// NewChatService создает новый экземпляр ChatService
func NewChatService(repo Repository) *ChatService {
	return &ChatService{repo: repo}
}

// SetBroadcaster подключает доставку сообщений в реальном времени
func (s *ChatService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// GetOrCreateDirectRoom возвращает личную комнату двух пользователей; второй результат - была ли она создана
func (s *ChatService) GetOrCreateDirectRoom(ctx context.Context, userID, otherID uuid.UUID, itemID *uuid.UUID) (*models.ChatRoom, bool, error) {
	if userID == otherID {
		return nil, false, errSelfChat
	}
	if _, err := s.repo.GetUser(ctx, otherID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, false, errUserNotFound
		}
		return nil, false, apperr.Internal("Ошибка получения пользователя", err)
	}

	room, created, err := s.repo.GetOrCreateDirectRoom(ctx, models.NewPair(userID, otherID), itemID)
	if errors.Is(err, db.ErrInvalidReference) {
		return nil, false, apperr.Validation("Вещь не найдена")
	}
	if err != nil {
		return nil, false, apperr.Internal("Ошибка создания комнаты", err)
	}
	return room, created, nil
}

// Authorize проверяет, что пользователь участник комнаты
func (s *ChatService) Authorize(ctx context.Context, userID, roomID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errRoomNotFound
	}
	if err != nil {
		return nil, apperr.Internal("Ошибка получения комнаты", err)
	}

	switch scope := room.Scope.(type) {
	case models.SwapScope:
		swap, err := s.repo.GetSwap(ctx, scope.SwapID)
		if errors.Is(err, db.ErrNotFound) {
			return nil, errRoomNotFound
		}
		if err != nil {
			return nil, apperr.Internal("Ошибка получения обмена", err)
		}
		if !swap.IsParticipant(userID) {
			return nil, errNotMember
		}
	case models.DirectScope:
		if !scope.Participants.Has(userID) {
			return nil, errNotMember
		}
	default:
		return nil, errUnknownScope
	}
	return room, nil
}

// ListMessages возвращает историю комнаты участнику
func (s *ChatService) ListMessages(ctx context.Context, userID, roomID uuid.UUID) ([]models.Message, error) {
	if _, err := s.Authorize(ctx, userID, roomID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, roomID)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения сообщений", err)
	}
	return messages, nil
}

// CreateMessage сохраняет сообщение участника и рассылает его подписчикам комнаты
func (s *ChatService) CreateMessage(ctx context.Context, userID, roomID uuid.UUID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errEmptyMessage
	}
	if utf8.RuneCountInString(body) > MaxMessageLen {
		return nil, errLongMessage
	}
	if _, err := s.Authorize(ctx, userID, roomID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:       uuid.New(),
		RoomID:   roomID,
		SenderID: userID,
		Body:     body,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		log.Printf("Ошибка сохранения сообщения: %v", err)
		return nil, apperr.Internal("Ошибка отправки сообщения", err)
	}

	name, err := s.repo.DisplayName(ctx, userID)
	if err != nil {
		log.Printf("Не удалось получить имя отправителя %s: %v", userID, err)
	}
	msg.SenderName = name

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(*msg)
	}
	return msg, nil
}

// DeleteContact скрывает переписки с контактом для пользователя
func (s *ChatService) DeleteContact(ctx context.Context, userID, contactID uuid.UUID) error {
	if userID == contactID {
		return errSelfContact
	}
	err := s.repo.HideContact(ctx, userID, contactID)
	if errors.Is(err, db.ErrInvalidReference) {
		return errUserNotFound
	}
	if err != nil {
		return apperr.Internal("Ошибка удаления контакта", err)
	}
	return nil
}

// ListConversations возвращает ленту переписок: по одной на собеседника, свежие первыми
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	summaries, err := s.repo.ListRoomSummaries(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения переписок", err)
	}
	hiddenIDs, err := s.repo.HiddenContacts(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Ошибка получения переписок", err)
	}
	hidden := make(map[uuid.UUID]bool, len(hiddenIDs))
	for _, id := range hiddenIDs {
		hidden[id] = true
	}

	conversations := mergeConversations(userID, summaries, hidden)
	for i := range conversations {
		conv := &conversations[i]
		name, err := s.repo.DisplayName(ctx, conv.Counterpart.ID)
		if err != nil {
			log.Printf("Не удалось получить имя пользователя %s: %v", conv.Counterpart.ID, err)
		}
		conv.Counterpart.Name = name
		if conv.LastMessage != nil {
			if conv.LastMessage.SenderID == conv.Counterpart.ID {
				conv.LastMessage.SenderName = name
			} else if own, err := s.repo.DisplayName(ctx, conv.LastMessage.SenderID); err == nil {
				conv.LastMessage.SenderName = own
			}
		}
	}
	return conversations, nil
}
