package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), CodeInternal},
		{"typed", OutOfRange("op", "too low"), CodeOutOfRange},
		{"wrapped typed", fmt.Errorf("outer: %w", NotFound("op", "missing")), CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, CodeFailedPrecondition.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, CodeOutOfRange.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, CodeUnauthenticated.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, CodePermissionDenied.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, CodeNotFound.HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, CodeResourceExhausted.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, CodeInternal.HTTPStatus())
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("marketplace.CreateOrder", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "internal error", err.Message)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestWithDetail(t *testing.T) {
	err := OutOfRange("op", "insufficient stock").WithDetail("availableStock", 2)

	appErr, ok := As(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, 2, appErr.Details["availableStock"])
	assert.True(t, Is(err, CodeOutOfRange))
}
