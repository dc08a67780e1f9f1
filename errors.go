package folio

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotConfigured is returned when a required secret or credential is absent
	ErrNotConfigured = errors.New("not configured")
	// ErrUpstream is returned when the object store answers with a failure status
	ErrUpstream = errors.New("upstream storage error")
)

// Error pairs one of the sentinel errors with the message shown to API clients.
// errors.Is matches against Kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Invalid returns an ErrInvalidInput error carrying a client-facing message.
func Invalid(message string) error {
	return &Error{Kind: ErrInvalidInput, Message: message}
}

// NotFound returns an ErrNotFound error carrying a client-facing message.
func NotFound(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

// NotConfigured returns an ErrNotConfigured error carrying a client-facing message.
func NotConfigured(message string) error {
	return &Error{Kind: ErrNotConfigured, Message: message}
}

// UpstreamError reports a non-2xx answer from the object store.
type UpstreamError struct {
	// Op is the failed operation as shown to clients, e.g. "persist gallery index".
	Op         string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Failed to %s: %d", e.Op, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}
