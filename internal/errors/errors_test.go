package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Room not found")
		assert.Equal(t, "NOT_FOUND: Room not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(ErrCodeExternal, "Store error", cause)
		assert.Contains(t, err.Error(), "EXTERNAL_SERVICE_ERROR")
		assert.Contains(t, err.Error(), "Store error")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "nickname"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"NotFound", func() *AppError { return NotFound("Room") }, ErrCodeNotFound},
		{"AlreadyExists", func() *AppError { return AlreadyExists("Word") }, ErrCodeAlreadyExists},
		{"Conflict", func() *AppError { return Conflict("stale") }, ErrCodeConflict},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("rounds", "too many") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("nickname") }, ErrCodeMissingRequired},
		{"NotEnoughPlayers", func() *AppError { return NotEnoughPlayers(1, 2) }, ErrCodeNotEnoughPlayers},
		{"InvalidPhase", func() *AppError { return InvalidPhase("start", "finished") }, ErrCodeInvalidPhase},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"StoreUnavailable", func() *AppError { return StoreUnavailable() }, ErrCodeStoreUnavailable},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.constructor()
			assert.Equal(t, tc.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestExternal(t *testing.T) {
	t.Run("wraps external service error", func(t *testing.T) {
		cause := errors.New("timeout")
		err := External("session store", cause)
		assert.Equal(t, ErrCodeExternal, err.Code)
		assert.Contains(t, err.Message, "session store")
		assert.Equal(t, cause, err.Unwrap())
	})
}

func TestIsAppError(t *testing.T) {
	t.Run("returns true for AppError", func(t *testing.T) {
		assert.True(t, IsAppError(New(ErrCodeNotFound, "test")))
	})

	t.Run("returns false for standard error", func(t *testing.T) {
		assert.False(t, IsAppError(errors.New("standard error")))
	})

	t.Run("returns true for fmt-wrapped AppError", func(t *testing.T) {
		wrapped := fmt.Errorf("join room: %w", NotFound("Room"))
		assert.True(t, IsAppError(wrapped))
	})
}

func TestAsAppError(t *testing.T) {
	t.Run("extracts AppError", func(t *testing.T) {
		original := New(ErrCodeNotFound, "Room not found")
		extracted, ok := AsAppError(original)
		assert.True(t, ok)
		assert.Equal(t, original, extracted)
	})

	t.Run("returns false for non-AppError", func(t *testing.T) {
		extracted, ok := AsAppError(errors.New("standard error"))
		assert.False(t, ok)
		assert.Nil(t, extracted)
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns code for AppError", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, GetCode(New(ErrCodeNotFound, "test")))
	})

	t.Run("returns ErrCodeInternal for standard error", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("standard error")))
	})
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(Forbidden("host only"), ErrCodeForbidden))
	assert.False(t, HasCode(Forbidden("host only"), ErrCodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeForbidden))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Room not found", NotFound("Room").Message)
	assert.Equal(t, "nickname is required", MissingRequired("nickname").Message)
	assert.Equal(t, "At least 2 players are needed, have 1", NotEnoughPlayers(1, 2).Message)
	assert.Equal(t, "Cannot start while game is finished", InvalidPhase("start", "finished").Message)
}
