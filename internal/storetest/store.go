// Package storetest содержит хранилище в памяти с теми же гарантиями, что и db.Store.
// Используется только в тестах сервисов.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/db"
	"github.com/rajivgeraev/swapit-api/internal/models"
)

type savedKey struct{ user, item uuid.UUID }

// Store - хранилище в памяти; все операции сериализуются мьютексом, что эквивалентно транзакциям
type Store struct {
	mu sync.Mutex

	clock time.Time

	users         map[uuid.UUID]models.User
	items         map[uuid.UUID]models.Item
	swaps         map[uuid.UUID]models.Swap
	rooms         map[uuid.UUID]models.ChatRoom
	messages      []models.Message
	ratings       []models.Rating
	notifications []models.Notification
	hidden        map[uuid.UUID]map[uuid.UUID]bool
	saved         map[savedKey]bool
	ngos          map[uuid.UUID]models.NGO
	reports       []models.Report

	// FailNotifications заставляет CreateNotification возвращать ошибку
	FailNotifications error
}

// New создаёт пустое хранилище
func New() *Store {
	return &Store{
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:  map[uuid.UUID]models.User{},
		items:  map[uuid.UUID]models.Item{},
		swaps:  map[uuid.UUID]models.Swap{},
		rooms:  map[uuid.UUID]models.ChatRoom{},
		hidden: map[uuid.UUID]map[uuid.UUID]bool{},
		saved:  map[savedKey]bool{},
		ngos:   map[uuid.UUID]models.NGO{},
	}
}

// now возвращает строго возрастающее время, чтобы сортировки были детерминированы
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

// AddUser создаёт пользователя для теста
func (s *Store) AddUser(name string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	u := models.User{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	s.users[u.ID] = u
	return u
}

// AddItem создаёт доступную вещь владельца для теста
func (s *Store) AddItem(ownerID uuid.UUID, title string) models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	item := models.Item{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: "описание вещи " + title,
		Category:    "misc",
		Condition:   models.ConditionGood,
		Status:      models.ItemAvailable,
		IsForSwap:   true,
		Tags:        []string{},
		Images:      []models.ItemImage{{URL: "https://img.example/" + title + ".jpg", Position: 0}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.items[item.ID] = item
	return item
}

// User возвращает текущее состояние пользователя
func (s *Store) User(id uuid.UUID) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

// Item возвращает текущее состояние вещи
func (s *Store) Item(id uuid.UUID) models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

// Ratings возвращает копию всех оценок
func (s *Store) Ratings() []models.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Rating(nil), s.ratings...)
}

// Rooms возвращает число комнат
func (s *Store) Rooms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Notifications возвращает копию всех уведомлений
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}

// --- вещи ---

func (s *Store) withOwner(item models.Item) *models.Item {
	owner := s.users[item.OwnerID]
	item.Owner = &models.UserSummary{
		ID: owner.ID, Name: owner.Name, Rating: owner.Rating, RatingCount: owner.RatingCount, Location: owner.Location,
	}
	item.Tags = append([]string{}, item.Tags...)
	item.Images = append([]models.ItemImage{}, item.Images...)
	return &item
}

func (s *Store) CreateItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[item.OwnerID]; !ok {
		return db.ErrInvalidReference
	}
	if item.NgoID != nil {
		if _, ok := s.ngos[*item.NgoID]; !ok {
			return db.ErrInvalidReference
		}
	}
	now := s.now()
	item.CreatedAt, item.UpdatedAt = now, now
	if item.Tags == nil {
		item.Tags = []string{}
	}
	stored := *item
	stored.Owner = nil
	s.items[item.ID] = stored
	return nil
}

func (s *Store) GetItem(_ context.Context, id uuid.UUID) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return s.withOwner(item), nil
}

func newestItemsFirst(items []*models.Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
}

func (s *Store) ListAvailableItems(_ context.Context, filter models.ItemFilter) ([]*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(filter.Query)
	var out []*models.Item
	for _, item := range s.items {
		if item.Status != models.ItemAvailable {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(item.Title), q) && !strings.Contains(strings.ToLower(item.Description), q) {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if (filter.Type == "swap" && !item.IsForSwap) || (filter.Type == "donation" && !item.IsForDonation) {
			continue
		}
		out = append(out, s.withOwner(item))
	}
	newestItemsFirst(out)
	return out, nil
}

func (s *Store) ListItemsByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Item
	for _, item := range s.items {
		if item.OwnerID == ownerID {
			out = append(out, s.withOwner(item))
		}
	}
	newestItemsFirst(out)
	return out, nil
}

func (s *Store) UpdateItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[item.ID]
	if !ok || current.Status != models.ItemAvailable {
		return db.ErrStateChanged
	}
	if item.NgoID != nil {
		if _, ok := s.ngos[*item.NgoID]; !ok {
			return db.ErrInvalidReference
		}
	}
	current.Title, current.Description, current.Category = item.Title, item.Description, item.Category
	current.Condition, current.Location = item.Condition, item.Location
	current.IsForSwap, current.IsForDonation, current.NgoID = item.IsForSwap, item.IsForDonation, item.NgoID
	current.Tags = append([]string{}, item.Tags...)
	current.UpdatedAt = s.now()
	item.UpdatedAt = current.UpdatedAt
	s.items[item.ID] = current
	return nil
}

func (s *Store) SetItemStatus(_ context.Context, id uuid.UUID, from, to models.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.Status != from {
		return db.ErrStateChanged
	}
	item.Status = to
	item.UpdatedAt = s.now()
	s.items[id] = item
	return nil
}

// --- обмены ---

func (s *Store) swapRoomID(swapID uuid.UUID) *uuid.UUID {
	for id, room := range s.rooms {
		if scope, ok := room.Scope.(models.SwapScope); ok && scope.SwapID == swapID {
			id := id
			return &id
		}
	}
	return nil
}

func (s *Store) CreateSwapWithRoom(_ context.Context, swap *models.Swap) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	swap.CreatedAt, swap.UpdatedAt = now, now
	roomID := uuid.New()
	swap.ChatRoomID = &roomID
	stored := *swap
	stored.ChatRoomID, stored.RequestedItem, stored.OfferedItem = nil, nil, nil
	s.swaps[swap.ID] = stored
	s.rooms[roomID] = models.ChatRoom{ID: roomID, Scope: models.SwapScope{SwapID: swap.ID}, CreatedAt: now, UpdatedAt: now}
	return roomID, nil
}

func (s *Store) GetSwap(_ context.Context, id uuid.UUID) (*models.Swap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, ok := s.swaps[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	swap.ChatRoomID = s.swapRoomID(id)
	return &swap, nil
}

func (s *Store) AttachSwapItems(_ context.Context, swaps []*models.Swap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sw := range swaps {
		if item, ok := s.items[sw.RequestedItemID]; ok {
			sw.RequestedItem = s.withOwner(item)
		}
		if item, ok := s.items[sw.OfferedItemID]; ok {
			sw.OfferedItem = s.withOwner(item)
		}
	}
	return nil
}

func (s *Store) ListSwapsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Swap, error) {
	s.mu.Lock()
	var out []*models.Swap
	for _, swap := range s.swaps {
		if swap.IsParticipant(userID) {
			swap := swap
			swap.ChatRoomID = s.swapRoomID(swap.ID)
			out = append(out, &swap)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, s.AttachSwapItems(ctx, out)
}

func (s *Store) TransitionSwap(_ context.Context, id uuid.UUID, from []models.SwapStatus, to models.SwapStatus) (*models.Swap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, ok := s.swaps[id]
	if !ok || !containsStatus(from, swap.Status) {
		return nil, db.ErrStateChanged
	}
	swap.Status = to
	swap.UpdatedAt = s.now()
	s.swaps[id] = swap
	return &swap, nil
}

func containsStatus(list []models.SwapStatus, st models.SwapStatus) bool {
	for _, v := range list {
		if v == st {
			return true
		}
	}
	return false
}

func (s *Store) CompleteSwap(_ context.Context, id uuid.UUID, reward int) (*models.Swap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, ok := s.swaps[id]
	if !ok || swap.Status != models.SwapAccepted {
		return nil, db.ErrStateChanged
	}
	requested, offered := s.items[swap.RequestedItemID], s.items[swap.OfferedItemID]
	if requested.Status != models.ItemAvailable || offered.Status != models.ItemAvailable {
		return nil, db.ErrItemUnavailable
	}

	now := s.now()
	swap.Status = models.SwapCompleted
	swap.UpdatedAt = now
	requested.Status, requested.UpdatedAt = models.ItemSwapped, now
	offered.Status, offered.UpdatedAt = models.ItemSwapped, now
	s.swaps[id] = swap
	s.items[requested.ID] = requested
	s.items[offered.ID] = offered
	for _, uid := range []uuid.UUID{swap.RequesterID, swap.ResponderID} {
		u := s.users[uid]
		u.SwapPoints += reward
		s.users[uid] = u
	}
	return &swap, nil
}

// --- оценки ---

func (s *Store) CreateRating(_ context.Context, r *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ratings {
		if existing.FromUserID == r.FromUserID && existing.SwapID == r.SwapID {
			return db.ErrDuplicate
		}
	}
	target, ok := s.users[r.ToUserID]
	if !ok {
		return db.ErrInvalidReference
	}
	r.CreatedAt = s.now()
	target.Rating, target.RatingCount = models.NextAverage(target.Rating, target.RatingCount, r.Score)
	s.users[r.ToUserID] = target
	s.ratings = append(s.ratings, *r)
	return nil
}

// --- чат ---

func (s *Store) GetRoom(_ context.Context, id uuid.UUID) (*models.ChatRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &room, nil
}

// PutRoom сохраняет комнату как есть, в том числе повреждённую
func (s *Store) PutRoom(room models.ChatRoom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
}

func (s *Store) GetOrCreateDirectRoom(_ context.Context, pair models.Pair, itemID *uuid.UUID) (*models.ChatRoom, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if scope, ok := room.Scope.(models.DirectScope); ok && scope.Participants == pair {
			room := room
			return &room, false, nil
		}
	}
	if _, ok := s.users[pair[0]]; !ok {
		return nil, false, db.ErrInvalidReference
	}
	if _, ok := s.users[pair[1]]; !ok {
		return nil, false, db.ErrInvalidReference
	}
	now := s.now()
	room := models.ChatRoom{
		ID:        uuid.New(),
		Scope:     models.DirectScope{Participants: pair, ItemID: itemID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.rooms[room.ID] = room
	return &room, true, nil
}

func (s *Store) ListMessages(_ context.Context, roomID uuid.UUID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.RoomID == roomID {
			m.SenderName = s.users[m.SenderID].Name
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) CreateMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[m.RoomID]
	if !ok {
		return db.ErrInvalidReference
	}
	m.CreatedAt = s.now()
	room.UpdatedAt = m.CreatedAt
	s.rooms[m.RoomID] = room
	stored := *m
	stored.SenderName = ""
	s.messages = append(s.messages, stored)
	return nil
}

func (s *Store) ListRoomSummaries(_ context.Context, userID uuid.UUID) ([]models.RoomSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RoomSummary
	for _, room := range s.rooms {
		summary := models.RoomSummary{Room: room}
		switch scope := room.Scope.(type) {
		case models.SwapScope:
			swap, ok := s.swaps[scope.SwapID]
			if !ok || !swap.IsParticipant(userID) {
				continue
			}
			swap.ChatRoomID = &room.ID
			summary.Swap = &swap
		case models.DirectScope:
			if !scope.Participants.Has(userID) {
				continue
			}
		default:
			continue
		}
		for i := len(s.messages) - 1; i >= 0; i-- {
			if s.messages[i].RoomID == room.ID {
				m := s.messages[i]
				summary.LastMessage = &m
				break
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Store) HideContact(_ context.Context, userID, contactID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[contactID]; !ok {
		return db.ErrInvalidReference
	}
	if s.hidden[userID] == nil {
		s.hidden[userID] = map[uuid.UUID]bool{}
	}
	s.hidden[userID][contactID] = true
	return nil
}

func (s *Store) HiddenContacts(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for id := range s.hidden[userID] {
		out = append(out, id)
	}
	return out, nil
}

// --- уведомления ---

func (s *Store) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNotifications != nil {
		return s.FailNotifications
	}
	n.CreatedAt = s.now()
	n.IsRead = false
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Notification{}
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (s *Store) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// --- пользователи ---

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.Email != nil {
		for _, u := range s.users {
			if u.Email != nil && *u.Email == *user.Email {
				return db.ErrDuplicate
			}
		}
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email != nil && *u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *Store) UpsertTelegramUser(_ context.Context, tg models.TelegramUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.TelegramID != nil && *u.TelegramID == tg.TelegramID {
			if tg.PhotoURL != "" {
				photo := tg.PhotoURL
				u.AvatarURL = &photo
			}
			u.UpdatedAt = s.now()
			s.users[id] = u
			return &u, nil
		}
	}
	now := s.now()
	tgID := tg.TelegramID
	u := models.User{ID: uuid.New(), TelegramID: &tgID, Name: tg.DisplayName(), IsVerified: true, CreatedAt: now, UpdatedAt: now}
	if tg.PhotoURL != "" {
		photo := tg.PhotoURL
		u.AvatarURL = &photo
	}
	s.users[u.ID] = u
	return &u, nil
}

func (s *Store) UpdateProfile(_ context.Context, id uuid.UUID, patch models.ProfilePatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Location != nil {
		u.Location = patch.Location
	}
	if patch.Bio != nil {
		u.Bio = patch.Bio
	}
	if patch.Phone != nil {
		u.Phone = patch.Phone
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return &u, nil
}

func (s *Store) UserStats(_ context.Context, id uuid.UUID) (models.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats models.UserStats
	for _, swap := range s.swaps {
		if swap.IsParticipant(id) && swap.Status == models.SwapCompleted {
			stats.TotalSwaps++
		}
	}
	for _, item := range s.items {
		if item.OwnerID == id && item.IsForDonation {
			stats.TotalDonations++
		}
	}
	return stats, nil
}

func (s *Store) DisplayName(_ context.Context, id uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return "", db.ErrNotFound
	}
	return u.Name, nil
}

func (s *Store) ToggleSavedItem(_ context.Context, userID, itemID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := savedKey{userID, itemID}
	if s.saved[key] {
		delete(s.saved, key)
		return false, nil
	}
	if _, ok := s.items[itemID]; !ok {
		return false, db.ErrNotFound
	}
	s.saved[key] = true
	return true, nil
}

func (s *Store) ListSavedItems(_ context.Context, userID uuid.UUID) ([]*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Item
	for key := range s.saved {
		if key.user != userID {
			continue
		}
		if item, ok := s.items[key.item]; ok && item.Status == models.ItemAvailable {
			out = append(out, s.withOwner(item))
		}
	}
	newestItemsFirst(out)
	return out, nil
}

// --- организации и жалобы ---

func (s *Store) ListNGOs(_ context.Context) ([]models.NGO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.NGO{}
	for _, n := range s.ngos {
		if n.IsActive {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) CreateNGO(_ context.Context, n *models.NGO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.CreatedAt = s.now()
	if n.Categories == nil {
		n.Categories = []string{}
	}
	s.ngos[n.ID] = *n
	return nil
}

func (s *Store) CreateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[r.ReporterID]; !ok {
		return db.ErrInvalidReference
	}
	r.CreatedAt = s.now()
	s.reports = append(s.reports, *r)
	return nil
}

// Reports возвращает копию всех жалоб
func (s *Store) Reports() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Report(nil), s.reports...)
}

// SetAdmin выдаёт пользователю права администратора
func (s *Store) SetAdmin(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	u.IsAdmin = true
	s.users[id] = u
}
