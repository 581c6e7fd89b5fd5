package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"eventline/internal/domain"
)

// tokenTTL bounds the lifetime of a service-to-service token. Tokens are
// issued per call, so a short window is enough.
const tokenTTL = 2 * time.Minute

// apiError mirrors the structured error body returned by the services.
type apiError struct {
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// client is the shared transport for all gateway clients. It attaches a
// service token to every call and translates failures into the domain error
// taxonomy: 4xx responses are client errors and propagate as typed domain
// errors; transport failures, timeouts, and 5xx responses become
// ServiceUnavailableError so the caller can choose whether the read may
// degrade.
type client struct {
	baseURL string
	service string
	caller  string
	http    *http.Client
	issuer  domain.TokenIssuer
}

func newClient(baseURL, service, caller string, timeout time.Duration, issuer domain.TokenIssuer, httpClient *http.Client) *client {
	// Copy so the caller's client is never mutated.
	hc := http.Client{Timeout: timeout}
	if httpClient != nil {
		hc = *httpClient
		hc.Timeout = timeout
	}
	return &client{
		baseURL: baseURL,
		service: service,
		caller:  caller,
		http:    &hc,
		issuer:  issuer,
	}
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.service, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create %s request: %w", c.service, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.issuer != nil {
		token, err := c.issuer.Issue(c.caller, tokenTTL)
		if err != nil {
			return fmt.Errorf("issue service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.ServiceUnavailableError{Service: c.service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &domain.ServiceUnavailableError{
			Service: c.service,
			Err:     fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return c.clientError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", c.service, err)
		}
	}
	return nil
}

func (c *client) clientError(resp *http.Response) error {
	var apiErr apiError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		msg := apiErr.Message
		if msg == "" {
			msg = "conflict"
		}
		return &domain.ConflictError{Message: msg}
	default:
		if apiErr.Message != "" {
			return fmt.Errorf("%w: %s", domain.ErrInvalidInput, apiErr.Message)
		}
		return fmt.Errorf("%w: %s returned status %d", domain.ErrInvalidInput, c.service, resp.StatusCode)
	}
}
