package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventline/internal/delivery/http/controllers"
	"eventline/internal/delivery/http/middleware"
	"eventline/internal/domain"
)

// NewEventRouter initializes the event service's routes. Admin and internal
// routes require a service token.
func NewEventRouter(
	events *controllers.EventController,
	admin *controllers.AdminEventController,
	internal *controllers.InternalEventController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	protected := middleware.RequireInternalAuth(verifier, logger)

	// Owner routes
	mux.HandleFunc("POST /users/{userID}/events", events.CreateEvent)
	mux.HandleFunc("GET /users/{userID}/events", events.ListOwnerEvents)
	mux.HandleFunc("GET /users/{userID}/events/{eventID}", events.GetOwnerEvent)
	mux.HandleFunc("PATCH /users/{userID}/events/{eventID}", events.UpdateOwnerEvent)
	mux.HandleFunc("GET /users/{userID}/events/{eventID}/requests", events.ListEventRequests)
	mux.HandleFunc("PATCH /users/{userID}/events/{eventID}/requests", events.DecideEventRequests)

	// Public
	mux.HandleFunc("GET /events/{eventID}", events.GetPublishedEvent)

	// Moderation
	mux.HandleFunc("GET /admin/events", protected(admin.SearchEvents))
	mux.HandleFunc("PATCH /admin/events/{eventID}", protected(admin.UpdateEvent))

	// Service-to-service
	mux.HandleFunc("GET /internal/events/{eventID}", protected(internal.GetSnapshot))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewRequestRouter initializes the request service's routes. Internal routes
// require a service token.
func NewRequestRouter(
	requests *controllers.RequestController,
	internal *controllers.InternalRequestController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	protected := middleware.RequireInternalAuth(verifier, logger)

	// Requester routes
	mux.HandleFunc("POST /users/{userID}/requests", requests.CreateRequest)
	mux.HandleFunc("GET /users/{userID}/requests", requests.ListOwnRequests)
	mux.HandleFunc("PATCH /users/{userID}/requests/{requestID}/cancel", requests.CancelRequest)

	// Service-to-service
	mux.HandleFunc("GET /internal/requests/confirmed", protected(internal.ConfirmedCounts))
	mux.HandleFunc("GET /internal/requests/event/{eventID}", protected(internal.ListForEvent))
	mux.HandleFunc("PATCH /internal/requests/confirm", protected(internal.SubmitConfirmation))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
