package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on code so cloned and wrapped variants compare equal to the
// predefined sentinels via errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound       = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden      = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrValidation     = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal       = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss      = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrOutOfRangeSlot = New("OUT_OF_RANGE_SLOT", http.StatusUnprocessableEntity, "appointment time is outside the distribution window")
	ErrUnknownDay     = New("UNKNOWN_DAY", http.StatusBadRequest, "appointment day must be between 1 and 7")
	ErrNotConfirmed   = New("NOT_CONFIRMED", http.StatusConflict, "appointment must be scheduled before it can be fulfilled")
	ErrAlreadyExists  = New("ALREADY_EXISTS", http.StatusConflict, "record already exists")
	ErrAuthRequired   = New("AUTH_REQUIRED", http.StatusUnauthorized, "authentication required")
	ErrStoreUnavail   = New("STORE_UNAVAILABLE", http.StatusServiceUnavailable, "store unavailable, retry later")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Transient reports whether the caller may retry the operation unchanged.
func Transient(err error) bool {
	return errors.Is(err, ErrStoreUnavail)
}
