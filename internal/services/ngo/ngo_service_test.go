package ngo

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapit-api/internal/apperr"
	"github.com/rajivgeraev/swapit-api/internal/storetest"
)

func ptr(s string) *string { return &s }

func seed(t *testing.T, svc *NGOService, adminID uuid.UUID) {
	t.Helper()
	inactive := false
	inputs := []CreateInput{
		{Name: "Red Cross", City: ptr("Moscow"), Categories: []string{"clothes"}},
		{Name: "Books for Kids", City: ptr("Kazan"), Categories: []string{"books", "toys"}},
		{Name: "Animal Shelter", City: ptr("Sochi"), Categories: []string{"pets"}},
		{Name: "Archive", Categories: []string{"books"}, IsActive: &inactive},
	}
	for _, in := range inputs {
		if _, err := svc.Create(context.Background(), adminID, in); err != nil {
			t.Fatalf("Create(%s) error = %v", in.Name, err)
		}
	}
}

func TestList(t *testing.T) {
	store := storetest.New()
	admin := store.AddUser("Админ")
	store.SetAdmin(admin.ID)
	svc := NewNGOService(store)
	seed(t, svc, admin.ID)

	all, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"Animal Shelter", "Books for Kids", "Red Cross"}
	if len(all) != len(want) {
		t.Fatalf("List() = %d ngos, want %d", len(all), len(want))
	}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("List()[%d] = %s, want %s", i, all[i].Name, name)
		}
	}

	found, err := svc.List(context.Background(), " Books ")
	if err != nil {
		t.Fatalf("List(query) error = %v", err)
	}
	if len(found) != 1 || found[0].Name != "Books for Kids" {
		t.Errorf("List(books) = %+v", found)
	}

	byCity, _ := svc.List(context.Background(), "sochi")
	if len(byCity) != 1 || byCity[0].Name != "Animal Shelter" {
		t.Errorf("List(sochi) = %+v", byCity)
	}
}

func TestCreate(t *testing.T) {
	store := storetest.New()
	admin, user := store.AddUser("Админ"), store.AddUser("Пользователь")
	store.SetAdmin(admin.ID)
	svc := NewNGOService(store)
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  uuid.UUID
		in     CreateInput
		status int
	}{
		{"not admin", user.ID, CreateInput{Name: "Фонд"}, http.StatusForbidden},
		{"unknown actor", uuid.New(), CreateInput{Name: "Фонд"}, http.StatusUnauthorized},
		{"empty name", admin.ID, CreateInput{Name: " "}, http.StatusBadRequest},
		{"bad email", admin.ID, CreateInput{Name: "Фонд", ContactEmail: ptr("nope")}, http.StatusBadRequest},
		{"bad website", admin.ID, CreateInput{Name: "Фонд", Website: ptr("ftp://fund.org")}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.actor, tt.in)
			if got := apperr.StatusOf(err); err == nil || got != tt.status {
				t.Errorf("Create() err = %v, want status %d", err, tt.status)
			}
		})
	}

	ngo, err := svc.Create(ctx, admin.ID, CreateInput{Name: "Фонд", Website: ptr("https://fund.org"), ContactEmail: ptr("hi@fund.org")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !ngo.IsActive || ngo.Categories == nil {
		t.Errorf("defaults not applied: %+v", ngo)
	}
}
