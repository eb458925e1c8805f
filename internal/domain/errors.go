package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Workspace tree error kinds. The first four are local validation failures:
// they are returned before the forest is touched or the remote is called.
var (
	ErrContainerNotFound  = errors.New("container not found")
	ErrInvalidParent      = errors.New("invalid parent")
	ErrInvalidDestination = errors.New("invalid destination")
	ErrNoLegalDestination = errors.New("no legal destination")

	// ErrCycleDetected means the tag forest is corrupt. Fatal to the
	// triggering operation only; the forest is not repaired.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrRemoteFailure matches any *RemoteFailureError.
	ErrRemoteFailure = errors.New("remote failure")
)

// RemoteFailureError wraps a transport error or a server-reported failure.
// It always means the optimistic local change was rolled back.
type RemoteFailureError struct {
	Op    string // remote operation, e.g. "move_page"
	Cause error
}

func (e *RemoteFailureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *RemoteFailureError) Unwrap() error { return e.Cause }

func (e *RemoteFailureError) Is(target error) bool { return target == ErrRemoteFailure }

func (e *RemoteFailureError) StatusCode() int { return http.StatusBadGateway }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (tag, folder, page)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
