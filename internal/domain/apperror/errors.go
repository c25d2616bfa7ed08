package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by services, repositories and handlers.
var (
	// ErrUnauthenticated is returned when no valid session backs the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized is returned when the actor's role lacks the capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed or out-of-policy input.
	ErrValidation = errors.New("validation error")

	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials is a failed login; it is also an ErrUnauthenticated.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
)

// Error wraps a sentinel with a message that is safe to show to clients
// and optional per-field details.
type Error struct {
	Err     error
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return errors.Is(e.Err, target) }

func New(err error, message string) *Error {
	return &Error{Err: err, Message: message}
}

// WithField attaches a field level detail and returns e for chaining.
func (e *Error) WithField(field, msg string) *Error {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
	return e
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Err: ErrValidation, Message: message, Fields: fields}
}

func NotFound(what string) *Error {
	return &Error{Err: ErrNotFound, Message: what + " not found"}
}

func Conflict(message string) *Error {
	return &Error{Err: ErrConflict, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Err: ErrUnauthorized, Message: message}
}

func Unauthenticated() *Error {
	return &Error{Err: ErrUnauthenticated, Message: "authentication required"}
}

func InvalidCredentials() *Error {
	return &Error{Err: ErrInvalidCredentials, Message: "invalid username or password"}
}

// PublicMessage returns the client facing message of err, or fallback when
// err carries none.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// FieldsOf returns the field details attached to err, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
