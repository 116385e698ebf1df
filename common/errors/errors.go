package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error types reported to clients in the response envelope.
const (
	TypeValidation            = "ValidationError"
	TypeNotFound              = "NotFound"
	TypeProductNotFound       = "ProductNotFound"
	TypeOrderNotFound         = "OrderNotFound"
	TypeInsufficientInventory = "InsufficientInventory"
	TypeUnauthorized          = "Unauthorized"
	TypeInvalidToken          = "InvalidToken"
	TypeForbidden             = "Forbidden"
	TypeConflict              = "Conflict"
	TypeRateLimited           = "RateLimited"
	TypeInternal              = "InternalError"
)

// Error represents an application error
type Error struct {
	Code    int         `json:"code"`
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type, so callers can
// write errors.Is(err, apperrors.ErrOrderNotFound) against derived values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// WithMessagef is WithMessage with formatting.
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of e carrying structured details.
func (e *Error) WithDetails(details interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy of e wrapping err.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// New creates a new Error
func New(code int, typ, message string, err error) *Error {
	return &Error{
		Code:    code,
		Type:    typ,
		Message: message,
		Err:     err,
	}
}

// From converts any error into an *Error. Unknown errors become InternalError.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal.Wrap(err)
}

// Generic error types
var (
	ErrValidation  = New(http.StatusBadRequest, TypeValidation, "Validation error", nil)
	ErrNotFound    = New(http.StatusNotFound, TypeNotFound, "Not found", nil)
	ErrForbidden   = New(http.StatusForbidden, TypeForbidden, "Forbidden", nil)
	ErrConflict    = New(http.StatusConflict, TypeConflict, "Resource already exists", nil)
	ErrRateLimited = New(http.StatusTooManyRequests, TypeRateLimited, "Rate limit exceeded. Please try again later.", nil)
	ErrInternal    = New(http.StatusInternalServerError, TypeInternal, "Internal server error", nil)
)

// Authentication error types
var (
	ErrUnauthorized       = New(http.StatusUnauthorized, TypeUnauthorized, "Unauthorized", nil)
	ErrInvalidCredentials = New(http.StatusUnauthorized, TypeUnauthorized, "Invalid email or password", nil)
	ErrInvalidToken       = New(http.StatusUnauthorized, TypeInvalidToken, "Invalid token", nil)
	ErrTokenExpired       = New(http.StatusUnauthorized, TypeInvalidToken, "Token expired", nil)
)

// Business logic error types
var (
	ErrProductNotFound       = New(http.StatusBadRequest, TypeProductNotFound, "One or more products not found or not available", nil)
	ErrOrderNotFound         = New(http.StatusNotFound, TypeOrderNotFound, "Order not found", nil)
	ErrInsufficientInventory = New(http.StatusBadRequest, TypeInsufficientInventory, "Insufficient inventory", nil)
)

// InventoryShortage describes the stock pool that could not satisfy a request.
type InventoryShortage struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Color       *string `json:"color"`
	Size        *string `json:"size"`
	Available   int     `json:"available"`
	Requested   int     `json:"requested"`
}

// InsufficientInventory builds the error reported when a stock pool is short.
func InsufficientInventory(s InventoryShortage) *Error {
	label := s.ProductName
	if s.Color != nil && s.Size != nil {
		label = fmt.Sprintf("%s (%s / %s)", s.ProductName, *s.Color, *s.Size)
	}
	return ErrInsufficientInventory.
		WithMessagef("Insufficient inventory for %s: available %d, requested %d", label, s.Available, s.Requested).
		WithDetails(s)
}
