package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Gateways (GW) ----

func ErrGatewayNotFound() *AppError {
	return New("GW_001", "Gateway not found", http.StatusNotFound)
}

func ErrGatewayInactive() *AppError {
	return New("GW_002", "Gateway is inactive, cannot create order", http.StatusServiceUnavailable)
}

// ---- Orders (ORD) ----

func ErrOrderValidationFailed(reason string) *AppError {
	return New("ORD_001", fmt.Sprintf("Order validation failed: %s", reason), http.StatusConflict)
}

func ErrInvalidSignature() *AppError {
	return New("ORD_002", "Invalid signature", http.StatusConflict)
}

func ErrInvalidOrderID() *AppError {
	return New("ORD_003", "Invalid order id", http.StatusConflict)
}

func ErrOrderNotFound() *AppError {
	return New("ORD_004", "Order not found", http.StatusNotFound)
}

func ErrOrderNotCancelable() *AppError {
	return New("ORD_005", "Order is not cancelable", http.StatusConflict)
}

// ---- Request authentication (SEC) ----

func ErrInvalidNonce() *AppError {
	return New("SEC_001", "Invalid nonce", http.StatusConflict)
}

// ---- Push subscriptions (WS) ----

func ErrWebsocketExists() *AppError {
	return New("WS_001", "A websocket subscription already exists for this order", http.StatusForbidden)
}

func ErrWebsocketForCompletedOrder() *AppError {
	return New("WS_002", "Cannot subscribe to a completed order", http.StatusForbidden)
}

// ---- Throttling (RATE) ----

func ErrThrottled() *AppError {
	return New("RATE_001", "Too many requests", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrOrderCountersDisabled() *AppError {
	return New("SYS_002", "Order counters are disabled, enable count_orders in the config", http.StatusInternalServerError)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
