// Package apperr defines the error kinds surfaced by the API. Every kind
// maps to one HTTP status, and each error carries a human message plus
// structured details.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable machine-readable error category.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindFileTooLarge Kind = "file_too_large"
	KindStorage      Kind = "storage_error"
	KindPersistence  Kind = "persistence_error"
	KindInternal     Kind = "internal_error"
)

// Error is an API-facing error.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

// StatusOf maps a kind to its HTTP status code.
func StatusOf(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

func Validation(message, field string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: map[string]any{"field": field}}
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication failed"
	}
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "Insufficient permissions"
	}
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(resource string, identifier any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: resource + " not found",
		Details: map[string]any{"resource": resource, "identifier": fmt.Sprint(identifier)},
	}
}

func Conflict(message, resource string) *Error {
	return &Error{Kind: KindConflict, Message: message, Details: map[string]any{"resource": resource}}
}

func FileTooLarge(maxSize, actualSize int64) *Error {
	return &Error{
		Kind:    KindFileTooLarge,
		Message: fmt.Sprintf("File too large. Maximum size: %d bytes, actual size: %d bytes", maxSize, actualSize),
		Details: map[string]any{"max_size": maxSize, "actual_size": actualSize},
	}
}

// Storage wraps a blob-store failure for the named operation.
func Storage(operation, message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Details: map[string]any{"operation": operation}, Err: err}
}

// Persistence wraps a relational-store failure for the named operation.
func Persistence(operation string, err error) *Error {
	return &Error{
		Kind:    KindPersistence,
		Message: "Database operation failed: " + operation,
		Details: map[string]any{"operation": operation},
		Err:     err,
	}
}

func Internal(message string, err error) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return &Error{Kind: KindInternal, Message: message, Err: err}
}
