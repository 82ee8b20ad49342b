// Package stakingapi is a client for the staking indexer HTTP API that serves
// epoch listings and per-validator delegator snapshots.
package stakingapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// APIKeyHeader carries the optional API key
const APIKeyHeader = "x-api-key"

// Sentinel errors for client operations
var (
	ErrRequestFailed    = errors.New("request failed")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecodeFailed     = errors.New("decoding response failed")
	ErrRateLimit        = errors.New("request budget wait failed")
)

// Epoch is one entry of the epoch listing. Timestamp is in nanoseconds.
type Epoch struct {
	EpochID   string `json:"epoch_id"`
	Timestamp Number `json:"timestamp"`
}

// Delegator is one account's stake with a validator for an epoch
type Delegator struct {
	AccountID    string `json:"account_id"`
	StakedAmount Number `json:"staked_amount"`
}

// Option configures the Client
type Option func(*Client)

// WithAPIKey sends the key in the x-api-key header on every request
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithRateLimit caps outgoing requests to rps per second with the given burst.
// A non-positive rps leaves the client unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Client represents a staking indexer API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a new API client with custom HTTP client and base URL
func NewClient(httpClient *http.Client, baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListEpochs retrieves every known epoch in the order the API returns them
func (c *Client) ListEpochs(ctx context.Context) ([]Epoch, error) {
	var epochs []Epoch
	if err := c.get(ctx, c.baseURL+"/v1/epochs", &epochs); err != nil {
		return nil, err
	}
	return epochs, nil
}

// ListDelegators retrieves the delegators of a validator contract at an epoch
func (c *Client) ListDelegators(ctx context.Context, contract, epochID string) ([]Delegator, error) {
	query := url.Values{}
	query.Set("epoch_id", epochID)
	endpoint := fmt.Sprintf("%s/v1/validators/%s/delegators?%s", c.baseURL, url.PathEscape(contract), query.Encode())

	var delegators []Delegator
	if err := c.get(ctx, endpoint, &delegators); err != nil {
		return nil, err
	}
	return delegators, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrRateLimit, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	return nil
}
