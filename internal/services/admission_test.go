package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"eventline/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRequestRepo is an in-memory RequestRepository. A single mutex serializes
// capacity-affecting mutations, standing in for the per-event lock the
// Postgres implementation takes.
type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.ParticipationRequest
	err      error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*domain.ParticipationRequest)}
}

func (f *fakeRequestRepo) confirmedCount(eventID string) int {
	n := 0
	for _, r := range f.requests {
		if r.EventID == eventID && r.Status == domain.RequestConfirmed {
			n++
		}
	}
	return n
}

func (f *fakeRequestRepo) CreateWithinLimit(ctx context.Context, req *domain.ParticipationRequest, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if limit > 0 && f.confirmedCount(req.EventID) >= limit {
		return domain.ErrLimitReached
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestRepo) ExistsActive(ctx context.Context, eventID, requesterID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.EventID == eventID && r.RequesterID == requesterID && r.Status != domain.RequestCanceled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestRepo) ListByRequester(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ParticipationRequest
	for _, r := range f.requests {
		if r.RequesterID == requesterID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ParticipationRequest
	for _, r := range f.requests {
		if r.EventID == eventID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ParticipationRequest
	for _, id := range ids {
		if r, ok := f.requests[id]; ok {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) (*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	req.Status = status
	cp := *req
	return &cp, nil
}

func (f *fakeRequestRepo) RejectBatch(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if r, ok := f.requests[id]; !ok || r.Status != domain.RequestPending {
			return domain.ErrNotPending
		}
	}
	for _, id := range ids {
		f.requests[id].Status = domain.RequestRejected
	}
	return nil
}

func (f *fakeRequestRepo) ConfirmBatchWithinLimit(ctx context.Context, eventID string, ids []string, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > 0 && limit-f.confirmedCount(eventID) < len(ids) {
		return domain.ErrLimitReached
	}
	for _, id := range ids {
		if r, ok := f.requests[id]; !ok || r.Status != domain.RequestPending {
			return domain.ErrNotPending
		}
	}
	for _, id := range ids {
		f.requests[id].Status = domain.RequestConfirmed
	}
	return nil
}

func (f *fakeRequestRepo) CountConfirmed(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int64)
	for _, id := range eventIDs {
		if n := f.confirmedCount(id); n > 0 {
			counts[id] = int64(n)
		}
	}
	return counts, nil
}

// add seeds a request directly, bypassing the capacity check.
func (f *fakeRequestRepo) add(req *domain.ParticipationRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	f.requests[req.ID] = req
}

type fakeEventClient struct {
	events map[string]*domain.Event
	err    error
}

func (f *fakeEventClient) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	event, ok := f.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *event
	return &cp, nil
}

func publishedEvent(id, initiatorID string, limit int, moderation bool) *domain.Event {
	return &domain.Event{
		ID:                id,
		Title:             "Meetup",
		InitiatorID:       initiatorID,
		State:             domain.EventPublished,
		EventDate:         time.Now().Add(48 * time.Hour),
		ParticipantLimit:  limit,
		RequestModeration: moderation,
	}
}

func newAdmission(repo *fakeRequestRepo, events *fakeEventClient) domain.AdmissionService {
	return NewAdmissionService(repo, events, nil, testLogger(), 5*time.Second)
}

func TestAdmissionService_CreateRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("initiator cannot join their own event", func(t *testing.T) {
		events := &fakeEventClient{events: map[string]*domain.Event{
			"ev-1": publishedEvent("ev-1", "owner", 10, true),
		}}
		svc := newAdmission(newFakeRequestRepo(), events)

		_, err := svc.CreateRequest(ctx, "owner", "ev-1")
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("event must be published", func(t *testing.T) {
		event := publishedEvent("ev-1", "owner", 10, true)
		event.State = domain.EventPending
		events := &fakeEventClient{events: map[string]*domain.Event{"ev-1": event}}
		svc := newAdmission(newFakeRequestRepo(), events)

		_, err := svc.CreateRequest(ctx, "user-1", "ev-1")
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("missing event maps to ErrNotFound", func(t *testing.T) {
		svc := newAdmission(newFakeRequestRepo(), &fakeEventClient{events: map[string]*domain.Event{}})
		_, err := svc.CreateRequest(ctx, "user-1", "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("event service unavailability is surfaced, not degraded", func(t *testing.T) {
		events := &fakeEventClient{err: &domain.ServiceUnavailableError{Service: "event-service"}}
		svc := newAdmission(newFakeRequestRepo(), events)

		_, err := svc.CreateRequest(ctx, "user-1", "ev-1")
		require.True(t, domain.IsUnavailable(err))
	})

	t.Run("duplicate non-canceled request conflicts", func(t *testing.T) {
		repo := newFakeRequestRepo()
		repo.add(domain.NewParticipationRequest("ev-1", "user-1", domain.RequestPending, time.Now()))
		events := &fakeEventClient{events: map[string]*domain.Event{
			"ev-1": publishedEvent("ev-1", "owner", 10, true),
		}}
		svc := newAdmission(repo, events)

		_, err := svc.CreateRequest(ctx, "user-1", "ev-1")
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("unique-index duplicate on insert conflicts too", func(t *testing.T) {
		repo := newFakeRequestRepo()
		repo.err = domain.ErrDuplicateRequest
		events := &fakeEventClient{events: map[string]*domain.Event{
			"ev-1": publishedEvent("ev-1", "owner", 10, true),
		}}
		svc := newAdmission(repo, events)

		_, err := svc.CreateRequest(ctx, "user-1", "ev-1")
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		require.Equal(t, "This request already exists", conflict.Message)
	})

	t.Run("a canceled request does not block a new one", func(t *testing.T) {
		repo := newFakeRequestRepo()
		repo.add(domain.NewParticipationRequest("ev-1", "user-1", domain.RequestCanceled, time.Now()))
		events := &fakeEventClient{events: map[string]*domain.Event{
			"ev-1": publishedEvent("ev-1", "owner", 10, false),
		}}
		svc := newAdmission(repo, events)

		req, err := svc.CreateRequest(ctx, "user-1", "ev-1")
		require.NoError(t, err)
		require.Equal(t, domain.RequestConfirmed, req.Status)
	})

	t.Run("moderation decides the initial status", func(t *testing.T) {
		events := &fakeEventClient{events: map[string]*domain.Event{
			"moderated":   publishedEvent("moderated", "owner", 10, true),
			"unmoderated": publishedEvent("unmoderated", "owner", 10, false),
		}}
		svc := newAdmission(newFakeRequestRepo(), events)

		req, err := svc.CreateRequest(ctx, "user-1", "moderated")
		require.NoError(t, err)
		require.Equal(t, domain.RequestPending, req.Status)

		req, err = svc.CreateRequest(ctx, "user-1", "unmoderated")
		require.NoError(t, err)
		require.Equal(t, domain.RequestConfirmed, req.Status)
	})

	t.Run("unlimited events auto-confirm even with moderation on", func(t *testing.T) {
		events := &fakeEventClient{events: map[string]*domain.Event{
			"ev-1": publishedEvent("ev-1", "owner", 0, true),
		}}
		svc := newAdmission(newFakeRequestRepo(), events)

		req, err := svc.CreateRequest(ctx, "user-1", "ev-1")
		require.NoError(t, err)
		require.Equal(t, domain.RequestConfirmed, req.Status)
	})

	t.Run("full event rejects with limit reached", func(t *testing.T) {
		repo := newFakeRequestRepo()
		repo.add(domain.NewParticipationRequest("ev-1", "a", domain.RequestConfirmed, time.Now()))
		repo.add(domain.NewParticipationRequest("ev-1", "b", domain.RequestConfirmed, time.Now()))
		events := &fakeEventClient{events: map[string]*domain.Event{
			"ev-1": publishedEvent("ev-1", "owner", 2, false),
		}}
		svc := newAdmission(repo, events)

		_, err := svc.CreateRequest(ctx, "user-1", "ev-1")
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		require.Contains(t, conflict.Message, "limit reached")
	})
}

func TestAdmissionService_CancelRequest(t *testing.T) {
	ctx := context.Background()

	repo := newFakeRequestRepo()
	req := domain.NewParticipationRequest("ev-1", "user-1", domain.RequestPending, time.Now())
	repo.add(req)
	svc := newAdmission(repo, &fakeEventClient{})

	t.Run("only the requester may cancel", func(t *testing.T) {
		_, err := svc.CancelRequest(ctx, "someone-else", req.ID)
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("requester cancels", func(t *testing.T) {
		canceled, err := svc.CancelRequest(ctx, "user-1", req.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RequestCanceled, canceled.Status)
	})

	t.Run("missing request maps to ErrNotFound", func(t *testing.T) {
		_, err := svc.CancelRequest(ctx, "user-1", "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAdmissionService_ConfirmRequests(t *testing.T) {
	ctx := context.Background()
	event := publishedEvent("ev-1", "owner", 2, true)

	seed := func(statuses ...domain.RequestStatus) (*fakeRequestRepo, []string) {
		repo := newFakeRequestRepo()
		ids := make([]string, len(statuses))
		for i, st := range statuses {
			req := domain.NewParticipationRequest("ev-1", "user-"+string(rune('a'+i)), st, time.Now())
			repo.add(req)
			ids[i] = req.ID
		}
		return repo, ids
	}

	t.Run("confirms a batch that fits the remaining slots", func(t *testing.T) {
		repo, ids := seed(domain.RequestPending, domain.RequestPending)
		svc := newAdmission(repo, &fakeEventClient{})

		result, err := svc.ConfirmRequests(ctx, &domain.ConfirmationBatch{
			Event: event, RequestIDs: ids, TargetStatus: domain.RequestConfirmed,
		})
		require.NoError(t, err)
		require.Len(t, result.ConfirmedRequests, 2)
		require.Empty(t, result.RejectedRequests)
	})

	t.Run("batch larger than remaining slots fails whole and mutates nothing", func(t *testing.T) {
		repo, ids := seed(domain.RequestPending, domain.RequestPending)
		repo.add(domain.NewParticipationRequest("ev-1", "z", domain.RequestConfirmed, time.Now()))
		svc := newAdmission(repo, &fakeEventClient{})

		_, err := svc.ConfirmRequests(ctx, &domain.ConfirmationBatch{
			Event: event, RequestIDs: ids, TargetStatus: domain.RequestConfirmed,
		})
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		require.Contains(t, conflict.Message, "out of limit")

		for _, id := range ids {
			req, err := repo.GetByID(ctx, id)
			require.NoError(t, err)
			require.Equal(t, domain.RequestPending, req.Status)
		}
	})

	t.Run("a non-pending member fails the whole batch", func(t *testing.T) {
		repo, ids := seed(domain.RequestPending, domain.RequestCanceled)
		svc := newAdmission(repo, &fakeEventClient{})

		_, err := svc.ConfirmRequests(ctx, &domain.ConfirmationBatch{
			Event: event, RequestIDs: ids, TargetStatus: domain.RequestConfirmed,
		})
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("rejection ignores the limit", func(t *testing.T) {
		repo, ids := seed(domain.RequestPending, domain.RequestPending, domain.RequestPending)
		svc := newAdmission(repo, &fakeEventClient{})

		result, err := svc.ConfirmRequests(ctx, &domain.ConfirmationBatch{
			Event: event, RequestIDs: ids, TargetStatus: domain.RequestRejected,
		})
		require.NoError(t, err)
		require.Len(t, result.RejectedRequests, 3)
	})

	t.Run("a request from another event fails the batch", func(t *testing.T) {
		repo := newFakeRequestRepo()
		other := domain.NewParticipationRequest("ev-2", "x", domain.RequestPending, time.Now())
		repo.add(other)
		svc := newAdmission(repo, &fakeEventClient{})

		_, err := svc.ConfirmRequests(ctx, &domain.ConfirmationBatch{
			Event: event, RequestIDs: []string{other.ID}, TargetStatus: domain.RequestConfirmed,
		})
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
	})

	t.Run("unknown request ids map to ErrNotFound", func(t *testing.T) {
		svc := newAdmission(newFakeRequestRepo(), &fakeEventClient{})
		_, err := svc.ConfirmRequests(ctx, &domain.ConfirmationBatch{
			Event: event, RequestIDs: []string{"missing"}, TargetStatus: domain.RequestConfirmed,
		})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid target status rejected", func(t *testing.T) {
		repo, ids := seed(domain.RequestPending)
		svc := newAdmission(repo, &fakeEventClient{})
		_, err := svc.ConfirmRequests(ctx, &domain.ConfirmationBatch{
			Event: event, RequestIDs: ids, TargetStatus: domain.RequestCanceled,
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

// Walks the moderated-admission scenario end to end: two requests fill a
// two-slot event, the third is turned away.
func TestAdmissionService_ModeratedCapacityScenario(t *testing.T) {
	ctx := context.Background()
	event := publishedEvent("ev-1", "owner", 2, true)
	events := &fakeEventClient{events: map[string]*domain.Event{"ev-1": event}}
	repo := newFakeRequestRepo()
	svc := newAdmission(repo, events)

	reqA, err := svc.CreateRequest(ctx, "alice", "ev-1")
	require.NoError(t, err)
	require.Equal(t, domain.RequestPending, reqA.Status)

	reqB, err := svc.CreateRequest(ctx, "bob", "ev-1")
	require.NoError(t, err)
	require.Equal(t, domain.RequestPending, reqB.Status)

	result, err := svc.ConfirmRequests(ctx, &domain.ConfirmationBatch{
		Event:        event,
		RequestIDs:   []string{reqA.ID, reqB.ID},
		TargetStatus: domain.RequestConfirmed,
	})
	require.NoError(t, err)
	require.Len(t, result.ConfirmedRequests, 2)

	_, err = svc.CreateRequest(ctx, "carol", "ev-1")
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Contains(t, conflict.Message, "limit reached")

	counts, err := svc.ConfirmedCounts(ctx, []string{"ev-1"})
	require.NoError(t, err)
	require.Equal(t, int64(2), counts["ev-1"])
}

// Hammers CreateRequest from many goroutines against one five-slot event and
// asserts the confirmed count never overshoots.
func TestAdmissionService_ConcurrentCreateRespectsLimit(t *testing.T) {
	ctx := context.Background()
	const workers = 20
	const limit = 5

	events := &fakeEventClient{events: map[string]*domain.Event{
		"ev-1": publishedEvent("ev-1", "owner", limit, false),
	}}
	repo := newFakeRequestRepo()
	svc := newAdmission(repo, events)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			_, err := svc.CreateRequest(ctx, "user-"+string(rune('a'+n)), "ev-1")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var confirmed, conflicts int
	for err := range errs {
		if err == nil {
			confirmed++
			continue
		}
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		conflicts++
	}
	require.Equal(t, limit, confirmed)
	require.Equal(t, workers-limit, conflicts)

	counts, err := svc.ConfirmedCounts(ctx, []string{"ev-1"})
	require.NoError(t, err)
	require.Equal(t, int64(limit), counts["ev-1"])
}
