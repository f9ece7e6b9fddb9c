package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("who"), http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), http.StatusForbidden},
		{"forbidden as bad request", Forbidden("self swap").WithStatus(http.StatusBadRequest), http.StatusBadRequest},
		{"not found", NotFound("gone"), http.StatusNotFound},
		{"conflict", Conflict("dup"), http.StatusConflict},
		{"internal", Internal("db", cause), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NotFound("gone")), http.StatusNotFound},
		{"foreign", cause, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWithStatusKeepsKind(t *testing.T) {
	base := Forbidden("self swap")
	err := base.WithStatus(http.StatusBadRequest)
	if KindOf(err) != KindForbidden {
		t.Errorf("KindOf() = %v, want KindForbidden", KindOf(err))
	}
	if base.Status != http.StatusForbidden {
		t.Errorf("WithStatus must not mutate the receiver")
	}
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("не удалось сохранить", cause)
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is must see the cause")
	}
	if MessageOf(err) != "не удалось сохранить" {
		t.Errorf("MessageOf() = %q", MessageOf(err))
	}
}
