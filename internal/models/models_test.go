package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewPair_OrderIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	if NewPair(a, b) != NewPair(b, a) {
		t.Fatalf("NewPair(a, b) != NewPair(b, a)")
	}
	p := NewPair(a, b)
	if !p.Has(a) || !p.Has(b) {
		t.Errorf("pair %v must contain both ids", p)
	}
	if p.Other(a) != b || p.Other(b) != a {
		t.Errorf("Other() returned wrong counterpart")
	}
	if p.Has(uuid.New()) {
		t.Errorf("pair must not contain a foreign id")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to SwapStatus
		want     bool
	}{
		{SwapPending, SwapAccepted, true},
		{SwapPending, SwapRejected, true},
		{SwapPending, SwapCancelled, true},
		{SwapPending, SwapCompleted, false},
		{SwapAccepted, SwapCompleted, true},
		{SwapAccepted, SwapCancelled, true},
		{SwapAccepted, SwapRejected, false},
		{SwapAccepted, SwapAccepted, false},
		{SwapRejected, SwapCancelled, false},
		{SwapCancelled, SwapCancelled, false},
		{SwapCompleted, SwapCancelled, false},
		{SwapCompleted, SwapCompleted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNextAverage(t *testing.T) {
	avg, count := NextAverage(0, 0, 4)
	if avg != 4 || count != 1 {
		t.Fatalf("first rating: got (%v, %d)", avg, count)
	}
	avg, count = NextAverage(avg, count, 1)
	if math.Abs(avg-2.5) > 1e-9 || count != 2 {
		t.Fatalf("second rating: got (%v, %d)", avg, count)
	}
	avg, count = NextAverage(avg, count, 5)
	if math.Abs(avg-10.0/3.0) > 1e-9 || count != 3 {
		t.Fatalf("third rating: got (%v, %d)", avg, count)
	}
}

func TestRoomSummary_CounterpartAndActivity(t *testing.T) {
	requester, responder := uuid.New(), uuid.New()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	swap := &Swap{ID: uuid.New(), RequesterID: requester, ResponderID: responder, UpdatedAt: base.Add(time.Hour)}
	s := RoomSummary{
		Room: ChatRoom{ID: uuid.New(), Scope: SwapScope{SwapID: swap.ID}, UpdatedAt: base},
		Swap: swap,
	}
	if got, ok := s.Counterpart(requester); !ok || got != responder {
		t.Errorf("Counterpart(requester) = %v, %v", got, ok)
	}
	if _, ok := s.Counterpart(uuid.New()); ok {
		t.Errorf("outsider must not have a counterpart")
	}
	if !s.LastActivity().Equal(base.Add(time.Hour)) {
		t.Errorf("LastActivity should fall back to swap update time, got %v", s.LastActivity())
	}

	s.LastMessage = &Message{CreatedAt: base.Add(2 * time.Hour)}
	if !s.LastActivity().Equal(base.Add(2 * time.Hour)) {
		t.Errorf("LastActivity should use last message time, got %v", s.LastActivity())
	}
}

func TestChatRoom_MarshalJSON(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	room := ChatRoom{ID: uuid.New(), Scope: DirectScope{Participants: NewPair(a, b)}}

	raw, err := json.Marshal(room)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out struct {
		Kind           string      `json:"kind"`
		SwapID         *uuid.UUID  `json:"swap_id"`
		ParticipantIDs []uuid.UUID `json:"participant_ids"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Kind != "direct" || out.SwapID != nil || len(out.ParticipantIDs) != 2 {
		t.Errorf("unexpected direct room JSON: %s", raw)
	}
}
