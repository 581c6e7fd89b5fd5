package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when a referenced event or request does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when the request is malformed or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLimitReached is returned by the request repository when an insert or a
	// batch confirmation would push the confirmed count over the participant limit.
	ErrLimitReached = errors.New("participant limit reached")

	// ErrNotPending is returned by the request repository when a batch update
	// touches a request that is no longer PENDING.
	ErrNotPending = errors.New("request is not pending")

	// ErrDuplicateRequest is returned by the request repository when an insert
	// collides with an existing active request for the same event and requester.
	ErrDuplicateRequest = errors.New("request already exists")
)

// ConflictError reports a business-rule violation: wrong event state,
// self-participation, duplicate request, limit exceeded, edit after publish.
// Surfaced as HTTP 409 with a human-readable message.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflictf builds a ConflictError with a formatted message.
func Conflictf(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ServiceUnavailableError reports that a downstream collaborator could not be
// reached. Write paths surface it to the caller so the operation can be retried;
// it must never be treated as success.
type ServiceUnavailableError struct {
	Service string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s is not available: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("service %s is not available", e.Service)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err wraps a ServiceUnavailableError.
func IsUnavailable(err error) bool {
	var ue *ServiceUnavailableError
	return errors.As(err, &ue)
}
