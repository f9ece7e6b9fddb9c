package rating

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/models"
	"github.com/rajivgeraev/swapit-api/internal/storetest"
)

type fixture struct {
	store     *storetest.Store
	svc       *RatingService
	requester models.User
	responder models.User
	swap      *models.Swap
}

// newFixture создаёт обмен, доведённый до статуса status
func newFixture(t *testing.T, status models.SwapStatus) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storetest.New()
	f := &fixture{
		store:     store,
		svc:       NewRatingService(store),
		requester: store.AddUser("Инициатор"),
		responder: store.AddUser("Получатель"),
	}
	wanted := store.AddItem(f.responder.ID, "гитара")
	offered := store.AddItem(f.requester.ID, "самокат")
	f.swap = &models.Swap{
		ID:              uuid.New(),
		RequesterID:     f.requester.ID,
		ResponderID:     f.responder.ID,
		RequestedItemID: wanted.ID,
		OfferedItemID:   offered.ID,
		Status:          models.SwapPending,
	}
	if _, err := store.CreateSwapWithRoom(ctx, f.swap); err != nil {
		t.Fatal(err)
	}
	if status == models.SwapPending {
		return f
	}
	if _, err := store.TransitionSwap(ctx, f.swap.ID, []models.SwapStatus{models.SwapPending}, models.SwapAccepted); err != nil {
		t.Fatal(err)
	}
	if status == models.SwapCompleted {
		if _, err := store.CompleteSwap(ctx, f.swap.ID, 10); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestRateUser_Validation(t *testing.T) {
	completed := newFixture(t, models.SwapCompleted)
	accepted := newFixture(t, models.SwapAccepted)
	ctx := context.Background()

	tests := []struct {
		name     string
		svc      *RatingService
		rater    uuid.UUID
		swapID   uuid.UUID
		score    int
		wantCode int
	}{
		{"score too low", completed.svc, completed.requester.ID, completed.swap.ID, 0, http.StatusBadRequest},
		{"score too high", completed.svc, completed.requester.ID, completed.swap.ID, 6, http.StatusBadRequest},
		{"missing swap", completed.svc, completed.requester.ID, uuid.New(), 5, http.StatusNotFound},
		{"not completed", accepted.svc, accepted.requester.ID, accepted.swap.ID, 5, http.StatusBadRequest},
		{"not a participant", completed.svc, uuid.New(), completed.swap.ID, 5, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.RateUser(ctx, tt.rater, tt.swapID, tt.score)
			if apperr.StatusOf(err) != tt.wantCode {
				t.Errorf("RateUser() error = %v, want %d", err, tt.wantCode)
			}
		})
	}
}

func TestRateUser_UpdatesAggregate(t *testing.T) {
	f := newFixture(t, models.SwapCompleted)
	ctx := context.Background()

	r, err := f.svc.RateUser(ctx, f.requester.ID, f.swap.ID, 4)
	if err != nil {
		t.Fatalf("RateUser() error = %v", err)
	}
	if r.ToUserID != f.responder.ID {
		t.Errorf("rating must target the other participant")
	}
	if _, err := f.svc.RateUser(ctx, f.responder.ID, f.swap.ID, 2); err != nil {
		t.Fatalf("counterpart rating error = %v", err)
	}

	responder := f.store.User(f.responder.ID)
	if responder.Rating != 4 || responder.RatingCount != 1 {
		t.Errorf("responder aggregate = (%v, %d)", responder.Rating, responder.RatingCount)
	}
	requester := f.store.User(f.requester.ID)
	if requester.Rating != 2 || requester.RatingCount != 1 {
		t.Errorf("requester aggregate = (%v, %d)", requester.Rating, requester.RatingCount)
	}
}

func TestRateUser_DuplicateLeavesAggregateUnchanged(t *testing.T) {
	f := newFixture(t, models.SwapCompleted)
	ctx := context.Background()

	if _, err := f.svc.RateUser(ctx, f.requester.ID, f.swap.ID, 5); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.RateUser(ctx, f.requester.ID, f.swap.ID, 1)
	if !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("error = %v, want ErrAlreadyRated", err)
	}
	if apperr.StatusOf(err) != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apperr.StatusOf(err))
	}

	u := f.store.User(f.responder.ID)
	if u.Rating != 5 || u.RatingCount != 1 {
		t.Errorf("aggregate changed by duplicate: (%v, %d)", u.Rating, u.RatingCount)
	}
	if n := len(f.store.Ratings()); n != 1 {
		t.Errorf("ratings stored = %d, want 1", n)
	}
}

func TestRateUser_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, models.SwapCompleted)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			if _, err := f.svc.RateUser(context.Background(), f.requester.ID, f.swap.ID, score); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(i%5 + 1)
	}
	wg.Wait()

	if ok != 1 {
		t.Errorf("exactly one rating must win, got %d", ok)
	}
	u := f.store.User(f.responder.ID)
	stored := f.store.Ratings()[0]
	if u.RatingCount != 1 || math.Abs(u.Rating-float64(stored.Score)) > 1e-9 {
		t.Errorf("aggregate = (%v, %d), stored score %d", u.Rating, u.RatingCount, stored.Score)
	}
}
