package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventline/internal/domain"
)

type admissionService struct {
	requestRepo    domain.RequestRepository
	events         domain.EventClient
	notifier       domain.NotificationService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewAdmissionService creates the participation admission service. The event
// snapshot for every eligibility check is fetched through the event gateway;
// the capacity bound itself is enforced by the request repository inside its
// per-event exclusion scope. notifier may be nil.
func NewAdmissionService(
	requestRepo domain.RequestRepository,
	events domain.EventClient,
	notifier domain.NotificationService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.AdmissionService {
	return &admissionService{
		requestRepo:    requestRepo,
		events:         events,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *admissionService) CreateRequest(ctx context.Context, requesterID, eventID string) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Admission is a capacity-changing operation, so event-service
	// unavailability is surfaced here rather than degraded.
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		if domain.IsUnavailable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("get event snapshot: %w", err)
	}

	if event.InitiatorID == requesterID {
		return nil, domain.Conflictf("Initiator cannot request participation in their own event")
	}
	if event.State != domain.EventPublished {
		return nil, domain.Conflictf("Event must be published to request participation")
	}
	exists, err := s.requestRepo.ExistsActive(ctx, eventID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("check existing request: %w", err)
	}
	if exists {
		return nil, domain.Conflictf("This request already exists")
	}

	// Unlimited events always auto-confirm; otherwise moderation decides.
	status := domain.RequestConfirmed
	if event.ParticipantLimit > 0 && event.RequestModeration {
		status = domain.RequestPending
	}

	req := domain.NewParticipationRequest(eventID, requesterID, status, time.Now())
	if err := s.requestRepo.CreateWithinLimit(ctx, req, event.ParticipantLimit); err != nil {
		if errors.Is(err, domain.ErrLimitReached) {
			return nil, domain.Conflictf("Event participant limit reached")
		}
		// A concurrent create for the same requester can slip past the
		// existence check above; the unique index catches it on insert.
		if errors.Is(err, domain.ErrDuplicateRequest) {
			return nil, domain.Conflictf("This request already exists")
		}
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.logger.InfoContext(ctx, "participation request created",
		"request_id", req.ID, "event_id", eventID, "requester_id", requesterID, "status", req.Status)
	return req, nil
}

func (s *admissionService) CancelRequest(ctx context.Context, requesterID, requestID string) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req.RequesterID != requesterID {
		return nil, domain.Conflictf("User %s is not the requester of request %s", requesterID, requestID)
	}

	updated, err := s.requestRepo.UpdateStatus(ctx, requestID, domain.RequestCanceled)
	if err != nil {
		return nil, fmt.Errorf("cancel request: %w", err)
	}
	s.logger.InfoContext(ctx, "participation request canceled", "request_id", requestID)
	return updated, nil
}

func (s *admissionService) ListByRequester(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	requests, err := s.requestRepo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list requests by requester: %w", err)
	}
	return requests, nil
}

func (s *admissionService) ListByEvent(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	requests, err := s.requestRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests by event: %w", err)
	}
	return requests, nil
}

// ConfirmRequests applies the owner's bulk decision. The batch is
// all-or-nothing: a member that is no longer PENDING, or a CONFIRMED target
// that does not fit the remaining slots, fails the whole batch and leaves
// every request untouched.
func (s *admissionService) ConfirmRequests(ctx context.Context, batch *domain.ConfirmationBatch) (*domain.ConfirmationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if batch == nil || batch.Event == nil || len(batch.RequestIDs) == 0 {
		return nil, fmt.Errorf("%w: event snapshot and request ids are required", domain.ErrInvalidInput)
	}
	if batch.TargetStatus != domain.RequestConfirmed && batch.TargetStatus != domain.RequestRejected {
		return nil, fmt.Errorf("%w: target status must be CONFIRMED or REJECTED", domain.ErrInvalidInput)
	}

	requests, err := s.requestRepo.ListByIDs(ctx, batch.RequestIDs)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	if len(requests) != len(batch.RequestIDs) {
		return nil, domain.ErrNotFound
	}
	for _, req := range requests {
		if req.EventID != batch.Event.ID {
			return nil, domain.Conflictf("Request %s does not belong to event %s", req.ID, batch.Event.ID)
		}
		if req.Status != domain.RequestPending {
			return nil, domain.Conflictf("Can't change status when request status is not PENDING")
		}
	}

	result := &domain.ConfirmationResult{
		ConfirmedRequests: []*domain.ParticipationRequest{},
		RejectedRequests:  []*domain.ParticipationRequest{},
	}
	if batch.TargetStatus == domain.RequestRejected {
		if err := s.requestRepo.RejectBatch(ctx, batch.RequestIDs); err != nil {
			if errors.Is(err, domain.ErrNotPending) {
				return nil, domain.Conflictf("Can't change status when request status is not PENDING")
			}
			return nil, fmt.Errorf("reject requests: %w", err)
		}
		for _, req := range requests {
			req.Status = domain.RequestRejected
			result.RejectedRequests = append(result.RejectedRequests, req)
		}
		s.logger.InfoContext(ctx, "participation requests rejected", "event_id", batch.Event.ID, "count", len(requests))
	} else {
		err := s.requestRepo.ConfirmBatchWithinLimit(ctx, batch.Event.ID, batch.RequestIDs, batch.Event.ParticipantLimit)
		if err != nil {
			if errors.Is(err, domain.ErrLimitReached) {
				return nil, domain.Conflictf("Requests out of limit")
			}
			if errors.Is(err, domain.ErrNotPending) {
				return nil, domain.Conflictf("Can't change status when request status is not PENDING")
			}
			return nil, fmt.Errorf("confirm requests: %w", err)
		}
		for _, req := range requests {
			req.Status = domain.RequestConfirmed
			result.ConfirmedRequests = append(result.ConfirmedRequests, req)
		}
		s.logger.InfoContext(ctx, "participation requests confirmed", "event_id", batch.Event.ID, "count", len(requests))
	}

	if s.notifier != nil {
		for _, req := range requests {
			s.notifier.NotifyDecision(ctx, req)
		}
	}
	return result, nil
}

func (s *admissionService) ConfirmedCounts(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	counts, err := s.requestRepo.CountConfirmed(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("count confirmed requests: %w", err)
	}
	return counts, nil
}
