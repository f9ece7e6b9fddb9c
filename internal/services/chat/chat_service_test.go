package chat

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/models"
	"github.com/rajivgeraev/swapit-api/internal/storetest"
)

// recorder запоминает разосланные сообщения
type recorder struct {
	mu       sync.Mutex
	messages []models.Message
}

func (r *recorder) BroadcastMessage(msg models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func newService(t *testing.T) (*ChatService, *storetest.Store) {
	t.Helper()
	store := storetest.New()
	return NewChatService(store), store
}

// swapRoom создаёт обмен между двумя пользователями и возвращает его комнату
func swapRoom(t *testing.T, store *storetest.Store, requester, responder models.User) uuid.UUID {
	t.Helper()
	swap := &models.Swap{
		ID:              uuid.New(),
		RequesterID:     requester.ID,
		ResponderID:     responder.ID,
		RequestedItemID: store.AddItem(responder.ID, "гитара").ID,
		OfferedItemID:   store.AddItem(requester.ID, "самокат").ID,
		Status:          models.SwapPending,
	}
	roomID, err := store.CreateSwapWithRoom(context.Background(), swap)
	if err != nil {
		t.Fatalf("CreateSwapWithRoom() error = %v", err)
	}
	return roomID
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", want)
	}
	if got := apperr.StatusOf(err); got != want {
		t.Fatalf("status = %d, want %d (err: %v)", got, want, err)
	}
}

func TestGetOrCreateDirectRoom_Idempotent(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	alice, bob := store.AddUser("Алиса"), store.AddUser("Боб")

	first, created, err := svc.GetOrCreateDirectRoom(ctx, alice.ID, bob.ID, nil)
	if err != nil || !created {
		t.Fatalf("first call: created = %v, err = %v", created, err)
	}
	second, created, err := svc.GetOrCreateDirectRoom(ctx, bob.ID, alice.ID, nil)
	if err != nil || created {
		t.Fatalf("reverse call: created = %v, err = %v", created, err)
	}
	if first.ID != second.ID {
		t.Errorf("room ids differ: %s vs %s", first.ID, second.ID)
	}
	if store.Rooms() != 1 {
		t.Errorf("rooms = %d, want 1", store.Rooms())
	}
}

func TestGetOrCreateDirectRoom_Concurrent(t *testing.T) {
	svc, store := newService(t)
	alice, bob := store.AddUser("Алиса"), store.AddUser("Боб")

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID, bob.ID
			if i%2 == 1 {
				a, b = b, a
			}
			room, _, err := svc.GetOrCreateDirectRoom(context.Background(), a, b, nil)
			if err != nil {
				t.Errorf("GetOrCreateDirectRoom() error = %v", err)
				return
			}
			ids[i] = room.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent calls produced different rooms: %v", ids)
		}
	}
}

func TestGetOrCreateDirectRoom_Errors(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	alice := store.AddUser("Алиса")

	_, _, err := svc.GetOrCreateDirectRoom(ctx, alice.ID, alice.ID, nil)
	assertStatus(t, err, http.StatusBadRequest)

	_, _, err = svc.GetOrCreateDirectRoom(ctx, alice.ID, uuid.New(), nil)
	assertStatus(t, err, http.StatusNotFound)
}

func TestAuthorize(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	alice, bob, eve := store.AddUser("Алиса"), store.AddUser("Боб"), store.AddUser("Ева")

	swapRoomID := swapRoom(t, store, alice, bob)
	direct, _, err := svc.GetOrCreateDirectRoom(ctx, alice.ID, bob.ID, nil)
	if err != nil {
		t.Fatalf("GetOrCreateDirectRoom() error = %v", err)
	}
	broken := models.ChatRoom{ID: uuid.New()}
	store.PutRoom(broken)

	tests := []struct {
		name   string
		user   uuid.UUID
		room   uuid.UUID
		status int // 0 - доступ разрешён
	}{
		{"swap requester", alice.ID, swapRoomID, 0},
		{"swap responder", bob.ID, swapRoomID, 0},
		{"swap outsider", eve.ID, swapRoomID, http.StatusForbidden},
		{"direct participant", bob.ID, direct.ID, 0},
		{"direct outsider", eve.ID, direct.ID, http.StatusForbidden},
		{"missing room", alice.ID, uuid.New(), http.StatusNotFound},
		{"room without scope", alice.ID, broken.ID, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authorize(ctx, tt.user, tt.room)
			if tt.status == 0 {
				if err != nil {
					t.Fatalf("Authorize() error = %v", err)
				}
				return
			}
			assertStatus(t, err, tt.status)
		})
	}
}

func TestCreateMessage(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	rec := &recorder{}
	svc.SetBroadcaster(rec)
	alice, bob, eve := store.AddUser("Алиса"), store.AddUser("Боб"), store.AddUser("Ева")
	roomID := swapRoom(t, store, alice, bob)

	msg, err := svc.CreateMessage(ctx, alice.ID, roomID, "  привет  ")
	if err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	if msg.Body != "привет" || msg.SenderName != "Алиса" || msg.RoomID != roomID {
		t.Errorf("unexpected message: %+v", msg)
	}
	if _, err := svc.CreateMessage(ctx, bob.ID, roomID, "здравствуй"); err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}

	_, err = svc.CreateMessage(ctx, eve.ID, roomID, "можно?")
	assertStatus(t, err, http.StatusForbidden)
	_, err = svc.CreateMessage(ctx, alice.ID, roomID, "   ")
	assertStatus(t, err, http.StatusBadRequest)
	_, err = svc.CreateMessage(ctx, alice.ID, roomID, strings.Repeat("я", MaxMessageLen+1))
	assertStatus(t, err, http.StatusBadRequest)

	if _, err := svc.CreateMessage(ctx, alice.ID, roomID, strings.Repeat("я", MaxMessageLen)); err != nil {
		t.Fatalf("message of max length rejected: %v", err)
	}

	messages, err := svc.ListMessages(ctx, bob.ID, roomID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(messages))
	}
	if messages[0].Body != "привет" || messages[1].SenderName != "Боб" {
		t.Errorf("messages out of order: %+v", messages[:2])
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Errorf("messages not ascending at %d", i)
		}
	}

	if len(rec.messages) != 3 {
		t.Errorf("broadcasts = %d, want 3", len(rec.messages))
	}

	_, err = svc.ListMessages(ctx, eve.ID, roomID)
	assertStatus(t, err, http.StatusForbidden)
}

func TestDeleteContact(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	alice := store.AddUser("Алиса")

	assertStatus(t, svc.DeleteContact(ctx, alice.ID, alice.ID), http.StatusBadRequest)
	assertStatus(t, svc.DeleteContact(ctx, alice.ID, uuid.New()), http.StatusNotFound)
}

func TestListConversations(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	alice, bob, carol, dave := store.AddUser("Алиса"), store.AddUser("Боб"), store.AddUser("Карина"), store.AddUser("Денис")

	// С Бобом две комнаты: обмен и личная; в ленте должна остаться более свежая
	bobSwapRoom := swapRoom(t, store, alice, bob)
	bobDirect, _, err := svc.GetOrCreateDirectRoom(ctx, bob.ID, alice.ID, nil)
	if err != nil {
		t.Fatalf("GetOrCreateDirectRoom() error = %v", err)
	}
	carolRoom, _, err := svc.GetOrCreateDirectRoom(ctx, alice.ID, carol.ID, nil)
	if err != nil {
		t.Fatalf("GetOrCreateDirectRoom() error = %v", err)
	}
	daveRoom := swapRoom(t, store, dave, alice)

	mustSend := func(sender uuid.UUID, room uuid.UUID, body string) {
		t.Helper()
		if _, err := svc.CreateMessage(ctx, sender, room, body); err != nil {
			t.Fatalf("CreateMessage() error = %v", err)
		}
	}
	mustSend(carol.ID, carolRoom.ID, "привет от Карины")
	mustSend(dave.ID, daveRoom, "привет от Дениса")
	mustSend(bob.ID, bobSwapRoom, "по обмену")

	if err := svc.DeleteContact(ctx, alice.ID, dave.ID); err != nil {
		t.Fatalf("DeleteContact() error = %v", err)
	}

	conversations, err := svc.ListConversations(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("conversations = %d, want 2: %+v", len(conversations), conversations)
	}

	first, second := conversations[0], conversations[1]
	if first.Counterpart.ID != bob.ID || first.RoomID != bobSwapRoom || first.Kind != models.RoomSwap {
		t.Errorf("first conversation = %+v, want swap room with Bob", first)
	}
	if first.SwapStatus == nil || *first.SwapStatus != models.SwapPending {
		t.Errorf("swap status not filled: %+v", first.SwapStatus)
	}
	if first.Counterpart.Name != "Боб" || first.LastMessage == nil || first.LastMessage.SenderName != "Боб" {
		t.Errorf("names not filled: %+v", first)
	}
	if second.Counterpart.ID != carol.ID || second.RoomID != carolRoom.ID {
		t.Errorf("second conversation = %+v, want direct room with Carol", second)
	}
	if first.RoomID == bobDirect.ID {
		t.Errorf("stale room with Bob must be merged away")
	}

	// Скрытие действует только для Алисы
	daveView, err := svc.ListConversations(ctx, dave.ID)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(daveView) != 1 || daveView[0].Counterpart.ID != alice.ID {
		t.Errorf("dave conversations = %+v", daveView)
	}
}

func TestMergeConversations(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	older := models.RoomSummary{
		Room: models.ChatRoom{
			ID:        uuid.New(),
			Scope:     models.DirectScope{Participants: models.NewPair(me, other)},
			UpdatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		},
	}
	newer := older
	newer.Room.ID = uuid.New()
	newer.Room.UpdatedAt = older.Room.UpdatedAt.Add(time.Second)
	broken := models.RoomSummary{Room: models.ChatRoom{ID: uuid.New()}}
	foreign := models.RoomSummary{
		Room: models.ChatRoom{ID: uuid.New(), Scope: models.DirectScope{Participants: models.NewPair(uuid.New(), uuid.New())}},
	}

	got := mergeConversations(me, []models.RoomSummary{older, broken, newer, foreign}, nil)
	if len(got) != 1 || got[0].RoomID != newer.Room.ID {
		t.Fatalf("mergeConversations() = %+v, want only newer room", got)
	}

	got = mergeConversations(me, []models.RoomSummary{older, newer}, map[uuid.UUID]bool{other: true})
	if len(got) != 0 {
		t.Fatalf("hidden counterpart still listed: %+v", got)
	}
}
