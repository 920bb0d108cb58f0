package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound(t *testing.T) {
	err := NotFound("production", "PRD-001")

	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "production not found", err.Message)
	assert.Equal(t, "PRD-001", err.Details["id"])
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
}

func TestIsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("load order: %w", NotFound("order", "ORD-9"))

	assert.True(t, errors.Is(wrapped, ErrNotFound))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "ORD-9", appErr.Details["id"])
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := errors.New("connection reset")
	appErr := FromError(plain)
	assert.Equal(t, CodeInternal, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.ErrorIs(t, appErr, plain)

	original := Validation("lines must not be empty")
	assert.Same(t, original, FromError(original))
}

func TestInvalidTransition(t *testing.T) {
	err := InvalidTransition("production", "planned", "completed")

	assert.Equal(t, http.StatusConflict, err.HTTPStatus)
	assert.Equal(t, "production cannot move from planned to completed", err.Message)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestInsufficientStock(t *testing.T) {
	err := InsufficientStock("CELL-001", 10, 25)

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Error(), "CELL-001 has 10 on hand, 25 requested")
}
