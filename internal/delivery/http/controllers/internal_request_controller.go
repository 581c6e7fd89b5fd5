package controllers

import (
	"log/slog"
	"net/http"

	"eventline/internal/delivery/http/helpers"
	"eventline/internal/domain"
)

// InternalRequestController serves the service-to-service endpoints of the
// request service. All routes require an internal token.
type InternalRequestController struct {
	Logger  *slog.Logger
	Service domain.AdmissionService
}

func NewInternalRequestController(logger *slog.Logger, svc domain.AdmissionService) *InternalRequestController {
	return &InternalRequestController{
		Logger:  logger,
		Service: svc,
	}
}

// ConfirmedCounts godoc
// @Summary Confirmed request counts per event
// @Tags internal
// @Produce json
// @Security BearerAuth
// @Param eventIds query string true "Comma-separated event IDs"
// @Success 200 {object} map[string]int64
// @Router /internal/requests/confirmed [get]
func (c *InternalRequestController) ConfirmedCounts(w http.ResponseWriter, r *http.Request) {
	ids := splitParam(r.URL.Query().Get("eventIds"))
	counts, err := c.Service.ConfirmedCounts(r.Context(), ids)
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, counts)
}

// ListForEvent godoc
// @Summary List participation requests for an event
// @Tags internal
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {array} domain.ParticipationRequest
// @Router /internal/requests/event/{eventID} [get]
func (c *InternalRequestController) ListForEvent(w http.ResponseWriter, r *http.Request) {
	requests, err := c.Service.ListByEvent(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, requests)
}

// SubmitConfirmation godoc
// @Summary Apply an owner's bulk decision on pending requests
// @Description All-or-nothing batch confirmation or rejection. The event snapshot in the body carries the participant limit; the confirmed count is re-checked under the per-event lock.
// @Tags internal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch body domain.ConfirmationBatch true "Decision batch"
// @Success 200 {object} domain.ConfirmationResult
// @Failure 404 {object} helpers.APIError
// @Failure 409 {object} helpers.APIError
// @Router /internal/requests/confirm [patch]
func (c *InternalRequestController) SubmitConfirmation(w http.ResponseWriter, r *http.Request) {
	var batch domain.ConfirmationBatch
	if !helpers.DecodeAndValidate(w, r, &batch) {
		return
	}
	result, err := c.Service.ConfirmRequests(r.Context(), &batch)
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}
