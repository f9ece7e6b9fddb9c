package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/models"
	"github.com/rajivgeraev/swapit-api/internal/storetest"
)

func startRun(ctx context.Context, d *Dispatcher) <-chan error {
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	return done
}

func waitRun(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestDispatcher_PersistsAndDrainsOnShutdown(t *testing.T) {
	store := storetest.New()
	user := store.AddUser("Алиса")
	d := NewDispatcher(store, 16, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := startRun(ctx, d)
	for i := 0; i < 10; i++ {
		d.Notify(context.Background(), models.Notification{UserID: user.ID, Type: models.NotifySwapRequest, Message: "новое предложение"})
	}
	cancel()
	waitRun(t, done)

	got := store.Notifications()
	if len(got) != 10 {
		t.Fatalf("persisted %d notifications, want 10", len(got))
	}
	for _, n := range got {
		if n.ID == uuid.Nil {
			t.Errorf("notification persisted without id")
		}
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	store := storetest.New()
	user := store.AddUser("Алиса")
	d := NewDispatcher(store, 2, 1)

	// Без запущенных воркеров очередь вмещает только два уведомления
	for i := 0; i < 5; i++ {
		d.Notify(context.Background(), models.Notification{UserID: user.ID, Type: models.NotifySwapAccepted})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := len(store.Notifications()); got != 2 {
		t.Fatalf("persisted %d notifications, want 2", got)
	}
}

func TestDispatcher_SwallowsStorageErrors(t *testing.T) {
	store := storetest.New()
	store.FailNotifications = errors.New("база недоступна")
	d := NewDispatcher(store, 4, 1)

	d.Notify(context.Background(), models.Notification{UserID: uuid.New(), Type: models.NotifySwapCompleted})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run() must not fail on storage errors, got %v", err)
	}
	if got := len(store.Notifications()); got != 0 {
		t.Fatalf("persisted %d notifications, want 0", got)
	}
}
