package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventline/internal/domain"
)

// editFreezeWindow is the period before an event's start during which its
// fields and state become immutable.
const editFreezeWindow = time.Hour

// minLeadTime is the minimum gap between creation and the event date.
const minLeadTime = 2 * time.Hour

type eventService struct {
	eventRepo      domain.EventRepository
	requests       domain.RequestClient
	stats          domain.StatsClient
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEventService creates the event lifecycle service. Confirmed-request and
// view counts are fetched through the gateway clients and degrade to zero when
// the downstream service is unavailable.
func NewEventService(
	eventRepo domain.EventRepository,
	requests domain.RequestClient,
	stats domain.StatsClient,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		requests:       requests,
		stats:          stats,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, initiatorID string, draft *domain.NewEventDraft) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if initiatorID == "" || draft == nil || draft.Title == "" {
		return nil, fmt.Errorf("%w: initiator and title are required", domain.ErrInvalidInput)
	}
	if draft.ParticipantLimit < 0 {
		return nil, fmt.Errorf("%w: participant limit must not be negative", domain.ErrInvalidInput)
	}
	if time.Until(draft.EventDate) < minLeadTime {
		return nil, fmt.Errorf("%w: event date must be at least %s in the future", domain.ErrInvalidInput, minLeadTime)
	}

	event := &domain.Event{
		Title:             draft.Title,
		Annotation:        draft.Annotation,
		Description:       draft.Description,
		CategoryID:        draft.CategoryID,
		InitiatorID:       initiatorID,
		State:             domain.EventPending,
		EventDate:         draft.EventDate,
		CreatedOn:         time.Now(),
		Paid:              draft.Paid,
		ParticipantLimit:  draft.ParticipantLimit,
		RequestModeration: draft.RequestModeration,
		LocationLat:       draft.LocationLat,
		LocationLng:       draft.LocationLng,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) UpdateEventByAdmin(ctx context.Context, eventID string, upd *domain.EventUpdate, action domain.AdminStateAction) (*domain.EventWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if action == domain.ActionPublishEvent && event.State != domain.EventPending {
		return nil, domain.Conflictf("The event to be published must be in state PENDING, but it is %s", event.State)
	}
	if action == domain.ActionRejectEvent && event.State == domain.EventPublished {
		return nil, domain.Conflictf("Cannot reject the event with state PUBLISHED")
	}
	if err := checkFreezeWindow(event); err != nil {
		return nil, err
	}

	applyUpdate(event, upd)
	switch action {
	case domain.ActionPublishEvent:
		now := time.Now()
		event.State = domain.EventPublished
		event.PublishedOn = &now
	case domain.ActionRejectEvent:
		event.State = domain.EventCanceled
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.logger.InfoContext(ctx, "event updated by admin", "event_id", eventID, "state", event.State)
	return s.decorateOne(ctx, event)
}

func (s *eventService) UpdateEventByOwner(ctx context.Context, eventID, ownerID string, upd *domain.EventUpdate, action domain.OwnerStateAction) (*domain.EventWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getOwnedEvent(ctx, eventID, ownerID)
	if err != nil {
		return nil, err
	}
	if event.State == domain.EventPublished {
		return nil, domain.Conflictf("Cannot edit the event in state PUBLISHED")
	}
	if err := checkFreezeWindow(event); err != nil {
		return nil, err
	}

	applyUpdate(event, upd)
	switch action {
	case domain.ActionCancelReview:
		event.State = domain.EventCanceled
	case domain.ActionSendToReview:
		event.State = domain.EventPending
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.logger.InfoContext(ctx, "event updated by owner", "event_id", eventID, "state", event.State)
	return s.decorateOne(ctx, event)
}

func (s *eventService) GetOwnerEvent(ctx context.Context, eventID, ownerID string) (*domain.EventWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getOwnedEvent(ctx, eventID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.decorateOne(ctx, event)
}

func (s *eventService) GetPublishedEvent(ctx context.Context, eventID string) (*domain.EventWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.State != domain.EventPublished {
		return nil, domain.ErrNotFound
	}
	return s.decorateOne(ctx, event)
}

func (s *eventService) GetEventSnapshot(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListByOwner(ctx context.Context, ownerID string, params domain.PaginationParams) ([]*domain.EventWithStats, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListByInitiator(ctx, ownerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events by owner: %w", err)
	}
	decorated, err := s.decorate(ctx, events)
	if err != nil {
		return nil, 0, err
	}
	return decorated, total, nil
}

func (s *eventService) ListByFilter(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventWithStats, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListByFilter(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events by filter: %w", err)
	}
	decorated, err := s.decorate(ctx, events)
	if err != nil {
		return nil, 0, err
	}
	return decorated, total, nil
}

func (s *eventService) ListEventRequests(ctx context.Context, eventID, ownerID string) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwnedEvent(ctx, eventID, ownerID); err != nil {
		return nil, err
	}
	requests, err := s.requests.ListForEvent(ctx, eventID)
	if err != nil {
		if domain.IsUnavailable(err) {
			s.logger.WarnContext(ctx, "request service unavailable, returning empty request list", "event_id", eventID, "err", err)
			return []*domain.ParticipationRequest{}, nil
		}
		return nil, fmt.Errorf("list event requests: %w", err)
	}
	return requests, nil
}

func (s *eventService) ConfirmEventRequests(ctx context.Context, eventID, ownerID string, requestIDs []string, target domain.RequestStatus) (*domain.ConfirmationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if target != domain.RequestConfirmed && target != domain.RequestRejected {
		return nil, fmt.Errorf("%w: target status must be CONFIRMED or REJECTED", domain.ErrInvalidInput)
	}
	if len(requestIDs) == 0 {
		return nil, fmt.Errorf("%w: request ids are required", domain.ErrInvalidInput)
	}

	event, err := s.getOwnedEvent(ctx, eventID, ownerID)
	if err != nil {
		return nil, err
	}

	// The snapshot travels with the batch; the admission engine re-counts
	// confirmed requests under its per-event lock.
	batch := &domain.ConfirmationBatch{
		Event:        event,
		RequestIDs:   requestIDs,
		TargetStatus: target,
	}
	result, err := s.requests.SubmitConfirmation(ctx, batch)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *eventService) getOwnedEvent(ctx context.Context, eventID, ownerID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.InitiatorID != ownerID {
		return nil, domain.Conflictf("User %s is not the initiator of event %s", ownerID, eventID)
	}
	return event, nil
}

func checkFreezeWindow(event *domain.Event) error {
	if time.Until(event.EventDate) < editFreezeWindow {
		return domain.Conflictf("Too late to change event %s", event.ID)
	}
	return nil
}

// applyUpdate merges non-nil fields of upd into event.
func applyUpdate(event *domain.Event, upd *domain.EventUpdate) {
	if upd == nil {
		return
	}
	if upd.Title != nil {
		event.Title = *upd.Title
	}
	if upd.Annotation != nil {
		event.Annotation = *upd.Annotation
	}
	if upd.Description != nil {
		event.Description = *upd.Description
	}
	if upd.CategoryID != nil {
		event.CategoryID = *upd.CategoryID
	}
	if upd.EventDate != nil {
		event.EventDate = *upd.EventDate
	}
	if upd.Paid != nil {
		event.Paid = *upd.Paid
	}
	if upd.ParticipantLimit != nil {
		event.ParticipantLimit = *upd.ParticipantLimit
	}
	if upd.RequestModeration != nil {
		event.RequestModeration = *upd.RequestModeration
	}
	if upd.LocationLat != nil {
		event.LocationLat = *upd.LocationLat
	}
	if upd.LocationLng != nil {
		event.LocationLng = *upd.LocationLng
	}
}

func (s *eventService) decorateOne(ctx context.Context, event *domain.Event) (*domain.EventWithStats, error) {
	decorated, err := s.decorate(ctx, []*domain.Event{event})
	if err != nil {
		return nil, err
	}
	return decorated[0], nil
}

// decorate attaches live confirmed-request and view counts. Both reads degrade
// to zero when the downstream service is unavailable.
func (s *eventService) decorate(ctx context.Context, events []*domain.Event) ([]*domain.EventWithStats, error) {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}

	confirmed, err := s.requests.ConfirmedCounts(ctx, ids)
	if err != nil {
		if !domain.IsUnavailable(err) {
			return nil, fmt.Errorf("get confirmed counts: %w", err)
		}
		s.logger.WarnContext(ctx, "request service unavailable, confirmed counts degrade to zero", "err", err)
		confirmed = map[string]int64{}
	}

	views, err := s.stats.Views(ctx, ids)
	if err != nil {
		if !domain.IsUnavailable(err) {
			return nil, fmt.Errorf("get views: %w", err)
		}
		s.logger.WarnContext(ctx, "stats service unavailable, views degrade to zero", "err", err)
		views = map[string]int64{}
	}

	result := make([]*domain.EventWithStats, len(events))
	for i, e := range events {
		result[i] = &domain.EventWithStats{
			Event:             e,
			ConfirmedRequests: confirmed[e.ID],
			Views:             views[e.ID],
		}
	}
	return result, nil
}
