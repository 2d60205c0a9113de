package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeStockViolation  = "STOCK_VIOLATION"
	ErrCodeRemote          = "REMOTE_ERROR"
	ErrCodePaymentDeclined = "PAYMENT_DECLINED"
	ErrCodeNotification    = "NOTIFICATION_ERROR"
	ErrCodeInvalidState    = "INVALID_STATE"
	ErrCodeEmptyCart       = "EMPTY_CART"
)

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

// StockViolationError is raised when a cart mutation would push a line item
// past its last known available stock. The mutation is aborted, state unchanged.
func StockViolationError(message string) *AppError {
	return NewAppError(ErrCodeStockViolation, message, http.StatusConflict)
}

// RemoteError covers backend REST failures: unreachable server, non-2xx
// responses and malformed payloads.
func RemoteError(message string) *AppError {
	return NewAppError(ErrCodeRemote, message, http.StatusBadGateway)
}

// PaymentDeclinedError is the designed-in simulated outcome, not a transport
// failure. Callers treat it like a remote error with a different message.
func PaymentDeclinedError(message string) *AppError {
	return NewAppError(ErrCodePaymentDeclined, message, http.StatusPaymentRequired)
}

func NotificationError(message string) *AppError {
	return NewAppError(ErrCodeNotification, message, http.StatusInternalServerError)
}

// InvalidStateError guards checkout transitions attempted from the wrong step.
func InvalidStateError(message string) *AppError {
	return NewAppError(ErrCodeInvalidState, message, http.StatusConflict)
}

func EmptyCartError(message string) *AppError {
	return NewAppError(ErrCodeEmptyCart, message, http.StatusBadRequest)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// field validation error.
func AddValidationError(field, reason string) *AppError {
	return ValidationError(fmt.Sprintf("Invalid field '%s': %s", field, reason))
}
