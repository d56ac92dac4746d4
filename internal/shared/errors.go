package shared

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks a client-side precondition failure. It never reaches the gateway.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the lookup matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the gateway rejected the request on a business rule.
	ErrConflict = errors.New("conflict")
	// ErrTransport indicates the gateway could not be reached or failed.
	ErrTransport = errors.New("gateway unavailable")
	// ErrUnauthorized indicates missing or rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBusy indicates a submission is already in flight.
	ErrBusy = errors.New("submission in progress")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// Error carries one of the sentinel kinds together with a human readable reason.
type Error struct {
	Kind    error
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

// Unwrap exposes the sentinel kind to errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Validation builds a local validation error.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// NotFound builds a not-found error with a reason.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Reason returns the message attached to err, or fallback when none was supplied.
func Reason(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fallback
}
