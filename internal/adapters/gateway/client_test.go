package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"eventline/internal/domain"

	"github.com/stretchr/testify/require"
)

type staticIssuer struct{}

func (staticIssuer) Issue(service string, expiry time.Duration) (string, error) {
	return "token-" + service, nil
}

func TestEventClient_GetEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes the snapshot and sends the service token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/internal/events/ev-1", r.URL.Path)
			require.Equal(t, "Bearer token-request-service", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(domain.Event{ID: "ev-1", State: domain.EventPublished, ParticipantLimit: 5})
		}))
		defer srv.Close()

		c := NewEventClient(srv.URL, "request-service", time.Second, staticIssuer{}, nil)
		event, err := c.GetEvent(ctx, "ev-1")
		require.NoError(t, err)
		require.Equal(t, "ev-1", event.ID)
		require.Equal(t, domain.EventPublished, event.State)
		require.Equal(t, 5, event.ParticipantLimit)
	})

	t.Run("maps 404 to ErrNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(apiError{Status: "404 NOT_FOUND", Message: "event missing"})
		}))
		defer srv.Close()

		c := NewEventClient(srv.URL, "request-service", time.Second, staticIssuer{}, nil)
		_, err := c.GetEvent(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("maps 5xx to ServiceUnavailableError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewEventClient(srv.URL, "request-service", time.Second, staticIssuer{}, nil)
		_, err := c.GetEvent(ctx, "ev-1")
		require.True(t, domain.IsUnavailable(err))
	})

	t.Run("maps transport failure to ServiceUnavailableError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		c := NewEventClient(srv.URL, "request-service", time.Second, staticIssuer{}, nil)
		_, err := c.GetEvent(ctx, "ev-1")
		require.True(t, domain.IsUnavailable(err))
	})
}

func TestNewClient_DoesNotMutateCallerHTTPClient(t *testing.T) {
	hc := &http.Client{Timeout: 30 * time.Second}
	c := newClient("http://localhost", "event-service", "request-service", time.Second, staticIssuer{}, hc)

	require.Equal(t, 30*time.Second, hc.Timeout)
	require.Equal(t, time.Second, c.http.Timeout)
	require.NotSame(t, hc, c.http)
}

func TestRequestClient_ConfirmedCounts(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/internal/requests/confirmed", r.URL.Path)
		require.Equal(t, "ev-1,ev-2", r.URL.Query().Get("eventIds"))
		_ = json.NewEncoder(w).Encode(map[string]int64{"ev-1": 3})
	}))
	defer srv.Close()

	c := NewRequestClient(srv.URL, "event-service", time.Second, staticIssuer{}, nil)
	counts, err := c.ConfirmedCounts(ctx, []string{"ev-1", "ev-2"})
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"ev-1": 3}, counts)

	counts, err = c.ConfirmedCounts(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, counts)
}

func TestRequestClient_SubmitConfirmation(t *testing.T) {
	ctx := context.Background()

	t.Run("propagates conflict from the admission engine", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(apiError{Status: "409 CONFLICT", Message: "Requests out of limit"})
		}))
		defer srv.Close()

		c := NewRequestClient(srv.URL, "event-service", time.Second, staticIssuer{}, nil)
		_, err := c.SubmitConfirmation(ctx, &domain.ConfirmationBatch{})
		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		require.Equal(t, "Requests out of limit", conflict.Message)
	})

	t.Run("retries a failed transport once and then surfaces unavailability", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewRequestClient(srv.URL, "event-service", time.Second, staticIssuer{}, nil)
		_, err := c.SubmitConfirmation(ctx, &domain.ConfirmationBatch{RequestIDs: []string{"r-1"}})
		require.True(t, domain.IsUnavailable(err))
		require.Equal(t, int64(2), calls.Load())
	})

	t.Run("second attempt may succeed", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(domain.ConfirmationResult{
				ConfirmedRequests: []*domain.ParticipationRequest{{ID: "r-1", Status: domain.RequestConfirmed}},
			})
		}))
		defer srv.Close()

		c := NewRequestClient(srv.URL, "event-service", time.Second, staticIssuer{}, nil)
		result, err := c.SubmitConfirmation(ctx, &domain.ConfirmationBatch{RequestIDs: []string{"r-1"}})
		require.NoError(t, err)
		require.Len(t, result.ConfirmedRequests, 1)
	})
}

func TestStatsClient_Views(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/views", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]int64{"ev-1": 12})
	}))
	defer srv.Close()

	c := NewStatsClient(srv.URL, "event-service", time.Second, staticIssuer{}, nil)
	views, err := c.Views(context.Background(), []string{"ev-1"})
	require.NoError(t, err)
	require.Equal(t, int64(12), views["ev-1"])
}
