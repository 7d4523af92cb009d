package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := New("GW_001", "Gateway not found", http.StatusNotFound)
	assert.Equal(t, "[GW_001] Gateway not found", err.Error())
}

func TestAppError_ErrorWithWrapped(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, inner)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, inner, errors.Unwrap(err))
}

func TestAppError_HTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"gateway not found", ErrGatewayNotFound(), http.StatusNotFound},
		{"gateway inactive", ErrGatewayInactive(), http.StatusServiceUnavailable},
		{"invalid signature", ErrInvalidSignature(), http.StatusConflict},
		{"invalid nonce", ErrInvalidNonce(), http.StatusConflict},
		{"order not cancelable", ErrOrderNotCancelable(), http.StatusConflict},
		{"throttled", ErrThrottled(), http.StatusTooManyRequests},
		{"websocket exists", ErrWebsocketExists(), http.StatusForbidden},
		{"websocket completed order", ErrWebsocketForCompletedOrder(), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestAppError_AsTarget(t *testing.T) {
	var appErr *AppError
	err := error(ErrOrderValidationFailed("amount should be more than 0"))
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ORD_001", appErr.Code)
	assert.Contains(t, appErr.Message, "amount should be more than 0")
}
