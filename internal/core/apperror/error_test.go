package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidation("bad input"), http.StatusBadRequest},
		{NewNotFound("product", "x"), http.StatusNotFound},
		{NewUnauthorized("no token"), http.StatusUnauthorized},
		{NewForbidden("no permission"), http.StatusForbidden},
		{NewConflict("terminal state"), http.StatusConflict},
		{NewDuplicate("cat_products", "code", "PR-1"), http.StatusConflict},
		{NewConcurrentModification("cat_clients", "x"), http.StatusConflict},
		{NewOrderClosed("x", "completed"), http.StatusConflict},
		{NewInsufficientStock("x", 5, 2), http.StatusUnprocessableEntity},
		{NewBusinessRule("rule", "broken"), http.StatusUnprocessableEntity},
		{NewInternal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatus, "code %s", tt.err.Code)
		assert.Equal(t, tt.want, GetHTTPStatus(tt.err))
	}
}

func TestGetHTTPStatusWrapped(t *testing.T) {
	wrapped := fmt.Errorf("consume stock: %w", NewInsufficientStock("x", 3, 1))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))

	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}

func TestWithDetailAndCause(t *testing.T) {
	cause := errors.New("pq: duplicate key")
	err := NewValidation("invalid plate").
		WithDetail("field", "plate").
		WithCause(cause)

	assert.Equal(t, "plate", err.Details["field"])
	assert.ErrorIs(t, err, cause)
}
