package domain

import (
	"context"
	"time"
)

// EventState is the moderation state of an event.
type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

// AdminStateAction is a state transition requested by an administrator.
type AdminStateAction string

const (
	ActionPublishEvent AdminStateAction = "PUBLISH_EVENT"
	ActionRejectEvent  AdminStateAction = "REJECT_EVENT"
)

// OwnerStateAction is a state transition requested by the event initiator.
type OwnerStateAction string

const (
	ActionSendToReview OwnerStateAction = "SEND_TO_REVIEW"
	ActionCancelReview OwnerStateAction = "CANCEL_REVIEW"
)

// Event is the authoritative event record owned by the event service.
// ParticipantLimit of 0 means unlimited; RequestModeration false means
// eligible participation requests auto-confirm.
// swagger:model Event
type Event struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	CategoryID        string     `json:"category"`
	InitiatorID       string     `json:"initiator"`
	State             EventState `json:"state"`
	EventDate         time.Time  `json:"event_date"`
	CreatedOn         time.Time  `json:"created_on"`
	PublishedOn       *time.Time `json:"published_on,omitempty"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participant_limit"`
	RequestModeration bool       `json:"request_moderation"`
	LocationLat       float64    `json:"location_lat"`
	LocationLng       float64    `json:"location_lng"`
}

// EventWithStats is an event decorated with live confirmed-request and view
// counts fetched through the gateways. Counts degrade to zero when the
// downstream service is unavailable.
// swagger:model EventWithStats
type EventWithStats struct {
	*Event
	ConfirmedRequests int64 `json:"confirmed_requests"`
	Views             int64 `json:"views"`
}

// NewEventDraft holds the fields accepted when creating an event.
type NewEventDraft struct {
	Title             string
	Annotation        string
	Description       string
	CategoryID        string
	EventDate         time.Time
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
	LocationLat       float64
	LocationLng       float64
}

// EventUpdate carries a partial event edit. Nil fields leave the stored value
// untouched.
type EventUpdate struct {
	Title             *string
	Annotation        *string
	Description       *string
	CategoryID        *string
	EventDate         *time.Time
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	LocationLat       *float64
	LocationLng       *float64
}

// EventFilter selects events for the admin search.
type EventFilter struct {
	InitiatorIDs []string
	States       []EventState
	CategoryIDs  []string
	RangeStart   *time.Time
	RangeEnd     *time.Time
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	ListByInitiator(ctx context.Context, initiatorID string, params PaginationParams) ([]*Event, int, error)
	ListByFilter(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
}

// EventService owns the event state machine and capacity policy fields, and is
// the entry point for owner-side participation request management.
type EventService interface {
	CreateEvent(ctx context.Context, initiatorID string, draft *NewEventDraft) (*Event, error)
	UpdateEventByAdmin(ctx context.Context, eventID string, upd *EventUpdate, action AdminStateAction) (*EventWithStats, error)
	UpdateEventByOwner(ctx context.Context, eventID, ownerID string, upd *EventUpdate, action OwnerStateAction) (*EventWithStats, error)
	GetOwnerEvent(ctx context.Context, eventID, ownerID string) (*EventWithStats, error)
	GetPublishedEvent(ctx context.Context, eventID string) (*EventWithStats, error)
	// GetEventSnapshot returns the bare event record for cross-service admission checks.
	GetEventSnapshot(ctx context.Context, eventID string) (*Event, error)
	ListByOwner(ctx context.Context, ownerID string, params PaginationParams) ([]*EventWithStats, int, error)
	ListByFilter(ctx context.Context, filter EventFilter, params PaginationParams) ([]*EventWithStats, int, error)
	ListEventRequests(ctx context.Context, eventID, ownerID string) ([]*ParticipationRequest, error)
	ConfirmEventRequests(ctx context.Context, eventID, ownerID string, requestIDs []string, target RequestStatus) (*ConfirmationResult, error)
}
