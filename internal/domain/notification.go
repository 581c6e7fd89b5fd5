package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// NotificationService sends best-effort notifications about admission
// decisions. Failures are logged, never surfaced to the admission flow.
type NotificationService interface {
	NotifyDecision(ctx context.Context, req *ParticipationRequest)
}
