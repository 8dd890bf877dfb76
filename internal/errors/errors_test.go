package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAPIError(t *testing.T) {
	cause := stderrors.New("duplicate key")
	conflict := NewConflictError("username already exists", cause)

	wrapped := fmt.Errorf("register: %w", conflict)
	got := AsAPIError(wrapped)
	assert.Same(t, conflict, got)
	assert.Equal(t, http.StatusBadRequest, got.Code)
	assert.True(t, IsConflict(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	internal := AsAPIError(stderrors.New("boom"))
	assert.Equal(t, ErrorTypeInternal, internal.Type)
	assert.Equal(t, http.StatusInternalServerError, internal.Code)
	assert.Equal(t, "internal server error", internal.Message)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  *APIError
		code int
		is   func(error) bool
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest, IsValidation},
		{NewAuthError("invalid credentials", nil), http.StatusUnauthorized, IsAuth},
		{NewNotFoundError("sensor not found", nil), http.StatusNotFound, IsNotFound},
		{NewConflictError("reading exists", nil), http.StatusBadRequest, IsConflict},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.True(t, tt.is(tt.err))
			assert.False(t, IsNotFound(NewDatabaseError("x", nil)))
			assert.Equal(t, "req-1", tt.err.WithRequestID("req-1").RequestID)
		})
	}
}
