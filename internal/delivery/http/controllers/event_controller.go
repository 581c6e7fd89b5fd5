package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"eventline/internal/delivery/http/helpers"
	"eventline/internal/domain"
)

// NewEventRequest is the request body for POST /users/{userID}/events.
// request_moderation defaults to true when omitted.
type NewEventRequest struct {
	Title             string    `json:"title"`
	Annotation        string    `json:"annotation"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	EventDate         time.Time `json:"event_date"`
	Paid              bool      `json:"paid"`
	ParticipantLimit  int       `json:"participant_limit"`
	RequestModeration *bool     `json:"request_moderation"`
	LocationLat       float64   `json:"location_lat"`
	LocationLng       float64   `json:"location_lng"`
}

// Validate implements helpers.Validator.
func (r NewEventRequest) Validate() []string {
	var errs []string
	if r.Title == "" {
		errs = append(errs, "title is required")
	}
	if r.EventDate.IsZero() {
		errs = append(errs, "event_date is required")
	}
	if r.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must not be negative")
	}
	return errs
}

func (r NewEventRequest) toDraft() *domain.NewEventDraft {
	moderation := true
	if r.RequestModeration != nil {
		moderation = *r.RequestModeration
	}
	return &domain.NewEventDraft{
		Title:             r.Title,
		Annotation:        r.Annotation,
		Description:       r.Description,
		CategoryID:        r.Category,
		EventDate:         r.EventDate,
		Paid:              r.Paid,
		ParticipantLimit:  r.ParticipantLimit,
		RequestModeration: moderation,
		LocationLat:       r.LocationLat,
		LocationLng:       r.LocationLng,
	}
}

// UpdateEventRequest is the request body for owner and admin event patches.
// Absent fields leave the stored value untouched; state_action is optional.
type UpdateEventRequest struct {
	Title             *string    `json:"title"`
	Annotation        *string    `json:"annotation"`
	Description       *string    `json:"description"`
	Category          *string    `json:"category"`
	EventDate         *time.Time `json:"event_date"`
	Paid              *bool      `json:"paid"`
	ParticipantLimit  *int       `json:"participant_limit"`
	RequestModeration *bool      `json:"request_moderation"`
	LocationLat       *float64   `json:"location_lat"`
	LocationLng       *float64   `json:"location_lng"`
	StateAction       string     `json:"state_action"`
}

// Validate implements helpers.Validator.
func (r UpdateEventRequest) Validate() []string {
	var errs []string
	if r.ParticipantLimit != nil && *r.ParticipantLimit < 0 {
		errs = append(errs, "participant_limit must not be negative")
	}
	return errs
}

func (r UpdateEventRequest) toUpdate() *domain.EventUpdate {
	return &domain.EventUpdate{
		Title:             r.Title,
		Annotation:        r.Annotation,
		Description:       r.Description,
		CategoryID:        r.Category,
		EventDate:         r.EventDate,
		Paid:              r.Paid,
		ParticipantLimit:  r.ParticipantLimit,
		RequestModeration: r.RequestModeration,
		LocationLat:       r.LocationLat,
		LocationLng:       r.LocationLng,
	}
}

// DecideRequestsBody is the request body for the owner's bulk decision on
// pending participation requests.
type DecideRequestsBody struct {
	RequestIDs []string `json:"request_ids"`
	Status     string   `json:"status"`
}

// Validate implements helpers.Validator.
func (r DecideRequestsBody) Validate() []string {
	var errs []string
	if len(r.RequestIDs) == 0 {
		errs = append(errs, "request_ids is required")
	}
	if r.Status != string(domain.RequestConfirmed) && r.Status != string(domain.RequestRejected) {
		errs = append(errs, "status must be CONFIRMED or REJECTED")
	}
	return errs
}

// EventListResponse is the paginated list payload for owner and admin event
// listings.
type EventListResponse struct {
	Events     []*domain.EventWithStats `json:"events"`
	Pagination helpers.PaginationMeta   `json:"pagination"`
}

// EventController serves the owner-facing and public event endpoints.
type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Create an event in state PENDING owned by the path user. The event date must be at least two hours in the future.
// @Tags events
// @Accept json
// @Produce json
// @Param userID path string true "Initiator ID"
// @Param event body NewEventRequest true "Event data"
// @Success 201 {object} domain.Event
// @Failure 400 {object} helpers.APIError
// @Router /users/{userID}/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var body NewEventRequest
	if !helpers.DecodeAndValidate(w, r, &body) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), r.PathValue("userID"), body.toDraft())
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, event)
}

// ListOwnerEvents godoc
// @Summary List the user's events
// @Tags events
// @Produce json
// @Param userID path string true "Initiator ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 10, max 100)"
// @Success 200 {object} EventListResponse
// @Router /users/{userID}/events [get]
func (c *EventController) ListOwnerEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListByOwner(r.Context(), r.PathValue("userID"), params)
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, EventListResponse{
		Events:     events,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetOwnerEvent godoc
// @Summary Get one of the user's events
// @Tags events
// @Produce json
// @Param userID path string true "Initiator ID"
// @Param eventID path string true "Event ID"
// @Success 200 {object} domain.EventWithStats
// @Failure 404 {object} helpers.APIError
// @Failure 409 {object} helpers.APIError
// @Router /users/{userID}/events/{eventID} [get]
func (c *EventController) GetOwnerEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetOwnerEvent(r.Context(), r.PathValue("eventID"), r.PathValue("userID"))
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// UpdateOwnerEvent godoc
// @Summary Edit one of the user's events
// @Description Apply a partial edit and an optional SEND_TO_REVIEW or CANCEL_REVIEW action. Published events cannot be edited, nor any event starting within an hour.
// @Tags events
// @Accept json
// @Produce json
// @Param userID path string true "Initiator ID"
// @Param eventID path string true "Event ID"
// @Param event body UpdateEventRequest true "Partial edit"
// @Success 200 {object} domain.EventWithStats
// @Failure 404 {object} helpers.APIError
// @Failure 409 {object} helpers.APIError
// @Router /users/{userID}/events/{eventID} [patch]
func (c *EventController) UpdateOwnerEvent(w http.ResponseWriter, r *http.Request) {
	var body UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &body) {
		return
	}
	action := domain.OwnerStateAction(body.StateAction)
	if action != "" && action != domain.ActionSendToReview && action != domain.ActionCancelReview {
		helpers.WriteError(w, http.StatusBadRequest, helpers.ReasonBadRequest, "state_action must be SEND_TO_REVIEW or CANCEL_REVIEW")
		return
	}
	event, err := c.Service.UpdateEventByOwner(r.Context(), r.PathValue("eventID"), r.PathValue("userID"), body.toUpdate(), action)
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// GetPublishedEvent godoc
// @Summary Get a published event
// @Description Public lookup. Events that are not PUBLISHED are reported as not found.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} domain.EventWithStats
// @Failure 404 {object} helpers.APIError
// @Router /events/{eventID} [get]
func (c *EventController) GetPublishedEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetPublishedEvent(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

// ListEventRequests godoc
// @Summary List participation requests for the user's event
// @Description Returns an empty list when the request service is unavailable.
// @Tags requests
// @Produce json
// @Param userID path string true "Initiator ID"
// @Param eventID path string true "Event ID"
// @Success 200 {array} domain.ParticipationRequest
// @Failure 409 {object} helpers.APIError
// @Router /users/{userID}/events/{eventID}/requests [get]
func (c *EventController) ListEventRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := c.Service.ListEventRequests(r.Context(), r.PathValue("eventID"), r.PathValue("userID"))
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, requests)
}

// DecideEventRequests godoc
// @Summary Confirm or reject pending participation requests
// @Description All-or-nothing: the batch is applied in full or fails in full. Confirmation is bounded by the participant limit.
// @Tags requests
// @Accept json
// @Produce json
// @Param userID path string true "Initiator ID"
// @Param eventID path string true "Event ID"
// @Param decision body DecideRequestsBody true "Request IDs and target status"
// @Success 200 {object} domain.ConfirmationResult
// @Failure 404 {object} helpers.APIError
// @Failure 409 {object} helpers.APIError
// @Failure 503 {object} helpers.APIError
// @Router /users/{userID}/events/{eventID}/requests [patch]
func (c *EventController) DecideEventRequests(w http.ResponseWriter, r *http.Request) {
	var body DecideRequestsBody
	if !helpers.DecodeAndValidate(w, r, &body) {
		return
	}
	result, err := c.Service.ConfirmEventRequests(
		r.Context(),
		r.PathValue("eventID"),
		r.PathValue("userID"),
		body.RequestIDs,
		domain.RequestStatus(body.Status),
	)
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}
