package domain

import (
	"context"
	"time"
)

// RequestStatus is the lifecycle status of a participation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// ParticipationRequest is a user's request to attend an event. Requests are
// never deleted, only status-transitioned. At most one non-canceled request
// exists per (event, requester) pair.
// swagger:model ParticipationRequest
type ParticipationRequest struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event"`
	RequesterID string        `json:"requester"`
	Status      RequestStatus `json:"status"`
	Created     time.Time     `json:"created"`
}

// NewParticipationRequest returns a request for the given event and requester.
// ID is assigned by the repository on create.
func NewParticipationRequest(eventID, requesterID string, status RequestStatus, created time.Time) *ParticipationRequest {
	return &ParticipationRequest{
		EventID:     eventID,
		RequesterID: requesterID,
		Status:      status,
		Created:     created,
	}
}

// ConfirmationBatch is the owner's bulk decision on pending requests. The event
// snapshot travels with the batch so the admission engine does not have to call
// back into the event service.
// swagger:model ConfirmationBatch
type ConfirmationBatch struct {
	Event        *Event        `json:"event"`
	RequestIDs   []string      `json:"request_ids"`
	TargetStatus RequestStatus `json:"target_status"`
}

// ConfirmationResult partitions a decided batch into confirmed and rejected
// requests.
// swagger:model ConfirmationResult
type ConfirmationResult struct {
	ConfirmedRequests []*ParticipationRequest `json:"confirmed_requests"`
	RejectedRequests  []*ParticipationRequest `json:"rejected_requests"`
}

// RequestRepository defines storage operations for participation requests.
//
// CreateWithinLimit and ConfirmBatchWithinLimit are the only capacity-affecting
// mutations; both must count confirmed requests and apply the change inside a
// single per-event exclusion scope so that concurrent admissions for the same
// event cannot jointly overshoot the limit. A limit of 0 disables the bound.
type RequestRepository interface {
	// CreateWithinLimit inserts req, failing with ErrLimitReached when limit > 0
	// and the event already has limit confirmed requests.
	CreateWithinLimit(ctx context.Context, req *ParticipationRequest, limit int) error
	GetByID(ctx context.Context, id string) (*ParticipationRequest, error)
	// ExistsActive reports whether a non-canceled request exists for the pair.
	ExistsActive(ctx context.Context, eventID, requesterID string) (bool, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*ParticipationRequest, error)
	ListByEvent(ctx context.Context, eventID string) ([]*ParticipationRequest, error)
	ListByIDs(ctx context.Context, ids []string) ([]*ParticipationRequest, error)
	UpdateStatus(ctx context.Context, id string, status RequestStatus) (*ParticipationRequest, error)
	// RejectBatch marks the requests REJECTED, failing with ErrNotPending if any
	// of them is no longer PENDING.
	RejectBatch(ctx context.Context, ids []string) error
	// ConfirmBatchWithinLimit marks the requests CONFIRMED, failing with
	// ErrLimitReached when fewer than len(ids) slots remain and with
	// ErrNotPending if any request is no longer PENDING. All-or-nothing.
	ConfirmBatchWithinLimit(ctx context.Context, eventID string, ids []string, limit int) error
	CountConfirmed(ctx context.Context, eventIDs []string) (map[string]int64, error)
}

// AdmissionService owns participation-request records and the capacity-bounded
// admission algorithm.
type AdmissionService interface {
	CreateRequest(ctx context.Context, requesterID, eventID string) (*ParticipationRequest, error)
	CancelRequest(ctx context.Context, requesterID, requestID string) (*ParticipationRequest, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*ParticipationRequest, error)
	ListByEvent(ctx context.Context, eventID string) ([]*ParticipationRequest, error)
	ConfirmRequests(ctx context.Context, batch *ConfirmationBatch) (*ConfirmationResult, error)
	ConfirmedCounts(ctx context.Context, eventIDs []string) (map[string]int64, error)
}
