package controllers

import (
	"log/slog"
	"net/http"

	"eventline/internal/delivery/http/helpers"
	"eventline/internal/domain"
)

// InternalEventController serves the service-to-service endpoints of the event
// service.
type InternalEventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewInternalEventController(logger *slog.Logger, svc domain.EventService) *InternalEventController {
	return &InternalEventController{
		Logger:  logger,
		Service: svc,
	}
}

// GetSnapshot godoc
// @Summary Get an event snapshot
// @Description Bare event record in any state, used by the request service for admission checks.
// @Tags internal
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} domain.Event
// @Failure 404 {object} helpers.APIError
// @Router /internal/events/{eventID} [get]
func (c *InternalEventController) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEventSnapshot(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}
