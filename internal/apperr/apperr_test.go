package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", InvalidErr("bad", nil), http.StatusBadRequest},
		{"conflict", ConflictErr("same status"), http.StatusBadRequest},
		{"unauthorized", UnauthorizedErr("who"), http.StatusUnauthorized},
		{"forbidden", ForbiddenErr("no"), http.StatusForbidden},
		{"not found", NotFoundErr("gone"), http.StatusNotFound},
		{"busy", BusyErr("busy", errors.New("lock timeout")), http.StatusConflict},
		{"wrapped", fmt.Errorf("outer: %w", NotFoundErr("gone")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Order not found.", PublicMessage(NotFoundErr("Order not found.")))
	assert.Equal(t, defaultPublicMsg, PublicMessage(Wrap(errors.New("pq: connection refused"))))
	assert.Equal(t, defaultPublicMsg, PublicMessage(errors.New("raw")))
}

func TestIsMatchesCode(t *testing.T) {
	sentinel := ConflictErr("Order is already in this status.").WithCode("same_status")
	err := fmt.Errorf("transition: %w", ConflictErr("Order is already in this status.").WithCode("same_status"))

	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, ConflictErr("other").WithCode("forbidden_transition"))
	assert.NotErrorIs(t, ConflictErr("no code"), ConflictErr("no code"))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(BusyErr("busy", nil)))
	assert.False(t, Retryable(InvalidErr("bad", nil)))
	assert.Nil(t, Wrap(nil))
}
