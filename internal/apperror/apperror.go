// Package apperror defines the application's error taxonomy.
//
// Services and repositories return these errors; the HTTP layer maps them
// to status codes in one place (handler.writeError). The sentinel errors
// are the contract: callers check them with errors.Is, never by string.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError carries a sentinel error plus a human-readable message.
// errors.Is works through Unwrap, so a wrapped AppError still matches
// its sentinel anywhere in a chain.
type AppError struct {
	Err     error  // sentinel (ErrNotFound, ErrValidation, ...)
	Message string // human-readable error message
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// Unauthorized returns an AppError for a missing or invalid credential.
// HTTP handlers map this to 401 with a WWW-Authenticate: Bearer header.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
