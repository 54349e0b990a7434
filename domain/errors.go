package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInvalid       ErrorCode = "INVALID"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal      ErrorCode = "INTERNAL"
	ErrCodeInvariant     ErrorCode = "INVARIANT"
	ErrCodeNotRegistered ErrorCode = "NOT_REGISTERED"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf builds a domain error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// InvariantError reports a violated aggregate precondition. The aggregate is
// guaranteed to be unchanged when one of these is returned.
func InvariantError(format string, args ...interface{}) *Error {
	return NewErrorf(ErrCodeInvariant, format, args...)
}

// Common domain errors.
var (
	ErrTenantNotFound     = NewError(ErrCodeNotFound, "tenant not found")
	ErrPermissionNotFound = NewError(ErrCodeNotFound, "permission not found")
	ErrRoleNotFound       = NewError(ErrCodeNotFound, "role not found")
	ErrAuthNotFound       = NewError(ErrCodeNotFound, "auth account not found")
	ErrSessionNotFound    = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
