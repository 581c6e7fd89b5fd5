package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eventline/internal/domain"
)

type requestClient struct {
	*client
}

// NewRequestClient returns a RequestClient that calls the request service's
// internal API. Reads return ServiceUnavailableError on transport failure and
// leave the degrade decision to the caller.
func NewRequestClient(baseURL, caller string, timeout time.Duration, issuer domain.TokenIssuer, httpClient *http.Client) domain.RequestClient {
	return &requestClient{
		client: newClient(baseURL, "request-service", caller, timeout, issuer, httpClient),
	}
}

func (c *requestClient) ConfirmedCounts(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	if len(eventIDs) == 0 {
		return map[string]int64{}, nil
	}
	query := url.Values{"eventIds": {strings.Join(eventIDs, ",")}}
	counts := make(map[string]int64)
	if err := c.do(ctx, http.MethodGet, "/internal/requests/confirmed", query, nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (c *requestClient) ListForEvent(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	var requests []*domain.ParticipationRequest
	if err := c.do(ctx, http.MethodGet, "/internal/requests/event/"+eventID, nil, nil, &requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*domain.ParticipationRequest{}
	}
	return requests, nil
}

// SubmitConfirmation retries a failed transport once and then surfaces the
// failure. The retry is not fully idempotent: if the first attempt was applied
// but its response lost, the second finds the requests already decided and
// returns that conflict instead of the applied result. The client never
// reports success it did not observe.
func (c *requestClient) SubmitConfirmation(ctx context.Context, batch *domain.ConfirmationBatch) (*domain.ConfirmationResult, error) {
	var result domain.ConfirmationResult
	err := c.do(ctx, http.MethodPatch, "/internal/requests/confirm", nil, batch, &result)
	if domain.IsUnavailable(err) && ctx.Err() == nil {
		err = c.do(ctx, http.MethodPatch, "/internal/requests/confirm", nil, batch, &result)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
