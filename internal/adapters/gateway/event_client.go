package gateway

import (
	"context"
	"net/http"
	"time"

	"eventline/internal/domain"
)

type eventClient struct {
	*client
}

// NewEventClient returns an EventClient that fetches event snapshots from the
// event service's internal API.
func NewEventClient(baseURL, caller string, timeout time.Duration, issuer domain.TokenIssuer, httpClient *http.Client) domain.EventClient {
	return &eventClient{
		client: newClient(baseURL, "event-service", caller, timeout, issuer, httpClient),
	}
}

func (c *eventClient) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	var event domain.Event
	if err := c.do(ctx, http.MethodGet, "/internal/events/"+eventID, nil, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
