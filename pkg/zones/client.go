package zones

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkotelnikov/pizzeria-backend/pkg/config"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1 << 20

var errBaseURLRequired = errors.New("zones base url is required")

// Quote is the delivery price returned for a coordinate.
type Quote struct {
	FeeCents   int
	ETAMinutes int
}

// Lookup resolves a delivery fee and ETA for a coordinate. The core treats
// the zone service as an opaque collaborator.
type Lookup interface {
	Quote(ctx context.Context, lat, lng float64) (*Quote, error)
}

// Client calls the delivery-zone pricing HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a zone lookup client from configuration.
func NewClient(cfg config.ZonesConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type quoteResponse struct {
	FeeCents   int `json:"fee_cents"`
	ETAMinutes int `json:"eta_minutes"`
}

// Quote asks the zone service for the delivery fee at the coordinate.
func (c *Client) Quote(ctx context.Context, lat, lng float64) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/v1/quote?%s", c.baseURL, url.Values{
		"lat": {fmt.Sprintf("%f", lat)},
		"lng": {fmt.Sprintf("%f", lng)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build zone request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call zone service")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read zone response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("zone service returned %d", resp.StatusCode))
	}

	var decoded quoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode zone response")
	}
	return &Quote{FeeCents: decoded.FeeCents, ETAMinutes: decoded.ETAMinutes}, nil
}

// Static is a fixed-price lookup used for dev and tests.
type Static struct {
	FeeCents   int
	ETAMinutes int
}

// Quote returns the configured flat fee regardless of coordinate.
func (s Static) Quote(_ context.Context, _, _ float64) (*Quote, error) {
	return &Quote{FeeCents: s.FeeCents, ETAMinutes: s.ETAMinutes}, nil
}
