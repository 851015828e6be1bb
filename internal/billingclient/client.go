package billingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"carenest/internal/models/request_models"
	"carenest/internal/models/response_models"
)

const DefaultTimeout = 15 * time.Second

var (
	ErrTimeout         = errors.New("billingclient: request timed out")
	ErrUnauthenticated = errors.New("billingclient: not authenticated")
	ErrMissingURL      = errors.New("billingclient: response did not include a redirect url")
	ErrBadResponse     = errors.New("billingclient: unreadable response")
)

// APIError is a non-2xx answer from the billing service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("billingclient: %d %s", e.Status, e.Message)
}

type StatusAPI interface {
	CheckSubscription(ctx context.Context) (response_models.SubscriptionStatusResponse, error)
}

type PromoAPI interface {
	CheckPromoCode(ctx context.Context, code string) ([]response_models.PromoResult, error)
}

type RedirectAPI interface {
	CreateCheckout(ctx context.Context, req request_models.CreateCheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context) (string, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   SessionProvider
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewClient(baseURL string, sessions SessionProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		sessions:   sessions,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Plans(ctx context.Context) (response_models.PlanCatalogResponse, error) {
	var out response_models.PlanCatalogResponse
	err := c.do(ctx, http.MethodGet, "/plans", nil, false, &out)
	return out, err
}

func (c *Client) CheckSubscription(ctx context.Context) (response_models.SubscriptionStatusResponse, error) {
	var out response_models.SubscriptionStatusResponse
	err := c.do(ctx, http.MethodGet, "/billing/status", nil, true, &out)
	return out, err
}

func (c *Client) CreateCheckout(ctx context.Context, req request_models.CreateCheckoutRequest) (string, error) {
	var out response_models.RedirectResponse
	if err := c.do(ctx, http.MethodPost, "/billing/checkout", req, true, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", ErrMissingURL
	}
	return out.URL, nil
}

func (c *Client) CreatePortalSession(ctx context.Context) (string, error) {
	var out response_models.RedirectResponse
	if err := c.do(ctx, http.MethodPost, "/billing/portal", request_models.CreatePortalRequest{}, true, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", ErrMissingURL
	}
	return out.URL, nil
}

func (c *Client) CheckPromoCode(ctx context.Context, code string) ([]response_models.PromoResult, error) {
	var out []response_models.PromoResult
	err := c.do(ctx, http.MethodPost, "/promo/validate", request_models.ValidatePromoRequest{Code: code}, false, &out)
	return out, err
}

type envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("billingclient: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("billingclient: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	session, ok := c.currentUser()
	switch {
	case ok:
		req.Header.Set("Authorization", "Bearer "+session.AuthToken)
	case auth:
		return ErrUnauthenticated
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return fmt.Errorf("billingclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("billingclient: read %s: %w", path, err)
	}
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrBadResponse, method, path, decodeErr)
	}
	if out != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return fmt.Errorf("%w: %s %s: no data", ErrBadResponse, method, path)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrBadResponse, method, path, err)
		}
	}
	return nil
}

func (c *Client) currentUser() (*Session, bool) {
	if c.sessions == nil {
		return nil, false
	}
	return c.sessions.CurrentUser()
}
