package domain

import (
	"context"
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("permission denied")
	ErrStorage      = errors.New("storage failure")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a slug or id has no matching record
	NotFoundError struct {
		Resource string
		Key      string
	}

	// ValidationError indicates invalid input that never reached the store
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates the actor may not perform the operation.
	// Reason is human-readable and safe to show to end users.
	ForbiddenError struct {
		Reason string
	}
)

func (e *NotFoundError) Error() string     { return e.Resource + " " + e.Key + ": not found" }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return "permission denied: " + e.Reason }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// ConflictError represents a lost race or an illegal state transition:
// a revision number already taken, a slug already in use, or a pending
// change that was already resolved.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // document, revision, pending_change
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StorageError wraps a failed durable-store call. The wrapped error is for
// operators; end users only see a generic retry message.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return e.Op + ": storage failure"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
func (e *StorageError) StatusCode() int      { return http.StatusServiceUnavailable }

// NewNotFound builds a NotFoundError for resource identified by key.
func NewNotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

// NewValidation builds a ValidationError.
func NewValidation(message string) error {
	return &ValidationError{Message: message}
}

// NewForbidden builds a ForbiddenError carrying reason.
func NewForbidden(reason string) error {
	return &ForbiddenError{Reason: reason}
}

// AsStorage wraps err as a StorageError unless it already carries a domain
// classification (not found, conflict, validation, permission, storage) or a
// context cancellation, which are passed through untouched.
func AsStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrStorage),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &StorageError{Op: op, Err: err}
}
