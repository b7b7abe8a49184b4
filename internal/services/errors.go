package services

import "fmt"

// ErrorCode classifies a service failure for transport mapping.
type ErrorCode string

const (
	CodeUnauthenticated        ErrorCode = "unauthenticated"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeNoPermissionsAssigned  ErrorCode = "no_permissions_assigned"
	CodeInsufficientPermission ErrorCode = "insufficient_permission"
	CodeNotFound               ErrorCode = "not_found"
	CodeConflict               ErrorCode = "conflict"
	CodeInvalidState           ErrorCode = "invalid_state"
	CodeCapacityExceeded       ErrorCode = "capacity_exceeded"
	CodeExpiredPassport        ErrorCode = "expired_passport"
	CodePrimaryContactMissing  ErrorCode = "primary_contact_missing"
	CodeValidation             ErrorCode = "validation"
	CodeInternal               ErrorCode = "internal"
)

// Error is a terminal, non-retryable service failure surfaced verbatim to
// the caller as a {status:false, message} response.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // wrapped cause, set for internal errors only
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a service error with a formatted message.
func NewError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected persistence or collaborator failure. The
// original cause is attached, never swallowed.
func Internal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Message: msg, Err: err}
}

// AsError extracts a *Error from err, wrapping unknown errors as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*Error); ok {
		return se
	}
	return Internal("unexpected error", err)
}
