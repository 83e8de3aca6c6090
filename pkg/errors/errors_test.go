package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStatus(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeInvalidRequest, http.StatusBadRequest},
		{ErrCodeInvalidToken, http.StatusBadRequest},
		{ErrCodeAttackSuspected, http.StatusBadRequest},
		{ErrCodeUnauthenticated, http.StatusUnauthorized},
		{ErrCodeOTPInvalid, http.StatusUnauthorized},
		{ErrCodeAccountFrozen, http.StatusUnauthorized},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeUnauthorised, http.StatusForbidden},
		{ErrCodeOTPExpired, http.StatusForbidden},
		{ErrCodeRequestExpired, http.StatusForbidden},
		{ErrCodeOverLimit, http.StatusMethodNotAllowed},
		{ErrCodeUserExists, http.StatusConflict},
		{ErrCodeMaintenance, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, New(tt.code, "x").GetStatus())
		})
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	base := New(ErrCodeOverLimit, "too many")
	wrapped := fmt.Errorf("issue otp: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeOverLimit, appErr.Code)
	assert.True(t, HasCode(wrapped, ErrCodeOverLimit))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeOverLimit))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, ErrCodeInternal, "failed to load account")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "failed to load account", err.Message)
}
