package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventline/internal/domain"
)

type notificationService struct {
	users  domain.UserClient
	events domain.EventClient
	mailer domain.Mailer
	logger *slog.Logger
}

// NewNotificationService returns a NotificationService that emails requesters
// about admission decisions. Lookups go through the user directory and event
// gateways; any failure is logged and the notification skipped, never surfaced
// to the admission flow.
func NewNotificationService(users domain.UserClient, events domain.EventClient, mailer domain.Mailer, logger *slog.Logger) domain.NotificationService {
	return &notificationService{
		users:  users,
		events: events,
		mailer: mailer,
		logger: logger,
	}
}

func (s *notificationService) NotifyDecision(ctx context.Context, req *domain.ParticipationRequest) {
	if req == nil {
		return
	}
	user, err := s.users.GetByID(ctx, req.RequesterID)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping decision notification, user lookup failed",
			"request_id", req.ID, "requester_id", req.RequesterID, "err", err)
		return
	}
	if user.Email == "" {
		return
	}

	eventTitle := req.EventID
	if event, err := s.events.GetEvent(ctx, req.EventID); err == nil {
		eventTitle = event.Title
	}

	var subject, text string
	switch req.Status {
	case domain.RequestConfirmed:
		subject = fmt.Sprintf("Your participation in %q is confirmed", eventTitle)
		text = fmt.Sprintf("Hi %s,\n\nyour participation request for %q has been confirmed. See you there!\n", user.Name, eventTitle)
	case domain.RequestRejected:
		subject = fmt.Sprintf("Your participation request for %q was declined", eventTitle)
		text = fmt.Sprintf("Hi %s,\n\nunfortunately your participation request for %q was declined by the organizer.\n", user.Name, eventTitle)
	default:
		return
	}

	if err := s.mailer.Send(user.Email, subject, "", text); err != nil {
		s.logger.WarnContext(ctx, "failed to send decision notification",
			"request_id", req.ID, "to", user.Email, "err", err)
		return
	}
	s.logger.InfoContext(ctx, "decision notification sent", "request_id", req.ID, "status", req.Status)
}
