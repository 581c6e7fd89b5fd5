package domain

import (
	"context"
	"time"
)

// The gateway interfaces below are the only way one service reads or writes
// another service's owned state. Implementations distinguish client errors
// (ErrNotFound, ConflictError, propagated as-is) from transport failures
// (ServiceUnavailableError). Callers decide per call whether a read may degrade
// to empty/zero; writes never degrade silently.

// EventClient fetches event snapshots from the event service.
type EventClient interface {
	GetEvent(ctx context.Context, eventID string) (*Event, error)
}

// RequestClient reads and writes participation-request state owned by the
// request service.
type RequestClient interface {
	ConfirmedCounts(ctx context.Context, eventIDs []string) (map[string]int64, error)
	ListForEvent(ctx context.Context, eventID string) ([]*ParticipationRequest, error)
	SubmitConfirmation(ctx context.Context, batch *ConfirmationBatch) (*ConfirmationResult, error)
}

// StatsClient reads view counts from the statistics collaborator.
type StatsClient interface {
	Views(ctx context.Context, eventIDs []string) (map[string]int64, error)
}

// User is the slice of the external user directory record this system needs.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserClient reads user records from the external user directory.
type UserClient interface {
	GetByID(ctx context.Context, userID string) (*User, error)
}

// TokenIssuer issues service-to-service tokens attached to gateway calls.
type TokenIssuer interface {
	Issue(service string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a service-to-service token and returns the calling
// service name.
type TokenVerifier interface {
	Verify(token string) (service string, err error)
}
