package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventline/internal/delivery/http/helpers"
	"eventline/internal/domain"
)

// AdminEventController serves the moderation endpoints under /admin.
type AdminEventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewAdminEventController(logger *slog.Logger, svc domain.EventService) *AdminEventController {
	return &AdminEventController{
		Logger:  logger,
		Service: svc,
	}
}

// SearchEvents godoc
// @Summary Search events
// @Description Admin search over all events by initiators, states, categories, and date range.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param users query string false "Comma-separated initiator IDs"
// @Param states query string false "Comma-separated states (PENDING, PUBLISHED, CANCELED)"
// @Param categories query string false "Comma-separated category IDs"
// @Param rangeStart query string false "RFC 3339 lower bound on event date"
// @Param rangeEnd query string false "RFC 3339 upper bound on event date"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 10, max 100)"
// @Success 200 {object} EventListResponse
// @Failure 400 {object} helpers.APIError
// @Router /admin/events [get]
func (c *AdminEventController) SearchEvents(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseEventFilter(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListByFilter(r.Context(), filter, params)
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, EventListResponse{
		Events:     events,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// UpdateEvent godoc
// @Summary Moderate an event
// @Description Apply a partial edit and an optional PUBLISH_EVENT or REJECT_EVENT action. Publishing requires state PENDING; a published event cannot be rejected.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param event body UpdateEventRequest true "Partial edit"
// @Success 200 {object} domain.EventWithStats
// @Failure 404 {object} helpers.APIError
// @Failure 409 {object} helpers.APIError
// @Router /admin/events/{eventID} [patch]
func (c *AdminEventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var body UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &body) {
		return
	}
	action := domain.AdminStateAction(body.StateAction)
	if action != "" && action != domain.ActionPublishEvent && action != domain.ActionRejectEvent {
		helpers.WriteError(w, http.StatusBadRequest, helpers.ReasonBadRequest, "state_action must be PUBLISH_EVENT or REJECT_EVENT")
		return
	}
	event, err := c.Service.UpdateEventByAdmin(r.Context(), r.PathValue("eventID"), body.toUpdate(), action)
	if err != nil {
		helpers.WriteDomainError(w, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, event)
}

func parseEventFilter(w http.ResponseWriter, r *http.Request) (domain.EventFilter, bool) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		InitiatorIDs: splitParam(q.Get("users")),
		CategoryIDs:  splitParam(q.Get("categories")),
	}
	for _, s := range splitParam(q.Get("states")) {
		state := domain.EventState(s)
		if state != domain.EventPending && state != domain.EventPublished && state != domain.EventCanceled {
			helpers.WriteError(w, http.StatusBadRequest, helpers.ReasonBadRequest, "unknown state: "+s)
			return domain.EventFilter{}, false
		}
		filter.States = append(filter.States, state)
	}
	if s := q.Get("rangeStart"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteError(w, http.StatusBadRequest, helpers.ReasonBadRequest, "rangeStart must be RFC 3339")
			return domain.EventFilter{}, false
		}
		filter.RangeStart = &t
	}
	if s := q.Get("rangeEnd"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			helpers.WriteError(w, http.StatusBadRequest, helpers.ReasonBadRequest, "rangeEnd must be RFC 3339")
			return domain.EventFilter{}, false
		}
		filter.RangeEnd = &t
	}
	if filter.RangeStart != nil && filter.RangeEnd != nil && filter.RangeEnd.Before(*filter.RangeStart) {
		helpers.WriteError(w, http.StatusBadRequest, helpers.ReasonBadRequest, "rangeEnd must not precede rangeStart")
		return domain.EventFilter{}, false
	}
	return filter, true
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
