package controllers

import (
	"log/slog"
	"net/http"

	"eventline/internal/delivery/http/helpers"
	"eventline/internal/domain"
)

// RequestController serves the requester-facing participation endpoints.
type RequestController struct {
	Logger  *slog.Logger
	Service domain.AdmissionService
}

func NewRequestController(logger *slog.Logger, svc domain.AdmissionService) *RequestController {
	return &RequestController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateRequest godoc
// @Summary Request participation in an event
// @Description Creates a request for the path user. Rejected when the event is the user's own, is not published, already has a non-canceled request from the user, or is full. Auto-confirms when the event is unlimited or unmoderated.
// @Tags requests
// @Produce json
// @Param userID path string true "Requester ID"
// @Param eventId query string true "Event ID"
// @Success 201 {object} domain.ParticipationRequest
// @Failure 400 {object} helpers.APIError
// @Failure 404 {object} helpers.APIError
// @Failure 409 {object} helpers.APIError
// @Failure 503 {object} helpers.APIError
// @Router /users/{userID}/requests [post]
func (c *RequestController) CreateRequest(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("eventId")
	if eventID == "" {
		helpers.WriteError(w, http.StatusBadRequest, helpers.ReasonBadRequest, "eventId is required")
		return
	}
	req, err := c.Service.CreateRequest(r.Context(), r.PathValue("userID"), eventID)
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, req)
}

// ListOwnRequests godoc
// @Summary List the user's participation requests
// @Tags requests
// @Produce json
// @Param userID path string true "Requester ID"
// @Success 200 {array} domain.ParticipationRequest
// @Router /users/{userID}/requests [get]
func (c *RequestController) ListOwnRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := c.Service.ListByRequester(r.Context(), r.PathValue("userID"))
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, requests)
}

// CancelRequest godoc
// @Summary Cancel one of the user's participation requests
// @Description Sets the request status to CANCELED. Only the requester may cancel.
// @Tags requests
// @Produce json
// @Param userID path string true "Requester ID"
// @Param requestID path string true "Request ID"
// @Success 200 {object} domain.ParticipationRequest
// @Failure 404 {object} helpers.APIError
// @Failure 409 {object} helpers.APIError
// @Router /users/{userID}/requests/{requestID}/cancel [patch]
func (c *RequestController) CancelRequest(w http.ResponseWriter, r *http.Request) {
	req, err := c.Service.CancelRequest(r.Context(), r.PathValue("userID"), r.PathValue("requestID"))
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, req)
}
