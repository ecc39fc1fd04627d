package errs

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError_KnownCode(t *testing.T) {
	err := NewError(ErrAccessDenied)
	require.NotNil(t, err)

	assert.Equal(t, ErrAccessDenied, err.Code)
	assert.Equal(t, http.StatusForbidden, err.Status)
	assert.NotEmpty(t, err.Message)
}

func TestNewError_UnknownCodeFallsBack(t *testing.T) {
	err := NewError(99999)
	require.NotNil(t, err)

	assert.Equal(t, ErrUnknown, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestNewError_DefaultStatus(t *testing.T) {
	// Codes without an explicit HTTP status default to 200: they surface
	// through the realtime channel, not as HTTP failures.
	err := NewError(ErrRoomNotFound)
	assert.Equal(t, http.StatusOK, err.Status)
}

func TestNewError_WireCodes(t *testing.T) {
	tests := []struct {
		code int
		wire string
	}{
		{ErrTokenExpired, "TOKEN_EXPIRED"},
		{ErrTokenInvalid, "INVALID_TOKEN"},
		{ErrAuthFailed, "AUTH_FAILED"},
	}

	for _, tt := range tests {
		err := NewError(tt.code)
		assert.Equal(t, tt.wire, err.WireCode, "code %d", tt.code)
	}

	// Errors that never surface on the realtime channel carry no wire code.
	assert.Empty(t, NewError(ErrInvalidParams).WireCode)
}

func TestCustomError_Error(t *testing.T) {
	err := NewError(ErrUnauthorized)
	assert.Contains(t, err.Error(), "3006")
	assert.Contains(t, err.Error(), err.Message)
}
