package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eventline/internal/domain"
)

type statsClient struct {
	*client
}

// NewStatsClient returns a StatsClient reading view counts from the
// statistics collaborator.
func NewStatsClient(baseURL, caller string, timeout time.Duration, issuer domain.TokenIssuer, httpClient *http.Client) domain.StatsClient {
	return &statsClient{
		client: newClient(baseURL, "stats-service", caller, timeout, issuer, httpClient),
	}
}

func (c *statsClient) Views(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	if len(eventIDs) == 0 {
		return map[string]int64{}, nil
	}
	query := url.Values{"eventIds": {strings.Join(eventIDs, ",")}}
	views := make(map[string]int64)
	if err := c.do(ctx, http.MethodGet, "/views", query, nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

type userClient struct {
	*client
}

// NewUserClient returns a UserClient reading records from the external user
// directory. Used only for notification lookups.
func NewUserClient(baseURL, caller string, timeout time.Duration, issuer domain.TokenIssuer, httpClient *http.Client) domain.UserClient {
	return &userClient{
		client: newClient(baseURL, "user-service", caller, timeout, issuer, httpClient),
	}
}

func (c *userClient) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/internal/users/"+userID, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
