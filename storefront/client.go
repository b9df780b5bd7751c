package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonwraymond/sfquery/query"
	"github.com/jonwraymond/sfquery/resilience"
)

const (
	// maxErrorBody bounds how much of a failed response is kept in a StatusError.
	maxErrorBody = 512

	// maxResponseBody bounds how much of any response is read.
	maxResponseBody = 16 << 20
)

// PingDocument is the document sent by Client.Ping.
const PingDocument query.Document = "shop { name }"

// Client fetches Storefront GraphQL documents. It implements query.Fetcher
// and health.Pinger.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	guard    *resilience.Guard
	maxBody  int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. The default has no timeout of its
// own; the guard bounds each call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithGuard replaces the guard built from the Config.
func WithGuard(g *resilience.Guard) Option {
	return func(c *Client) {
		c.guard = g
	}
}

// New creates a Client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c := &Client{
		endpoint: cfg.Endpoint(),
		token:    cfg.Token,
		http:     &http.Client{},
		guard:    NewGuard(cfg),
		maxBody:  maxResponseBody,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewGuard builds the limiter, breaker and timeout described by cfg.
// GraphQL errors and non-temporary statuses do not count against the
// breaker: they describe the document, not the upstream.
func NewGuard(cfg Config) *resilience.Guard {
	cfg = cfg.withDefaults()
	return resilience.NewGuard(
		resilience.WithLimiter(resilience.NewLimiter(resilience.LimiterConfig{
			Rate:    cfg.Rate,
			Burst:   cfg.Burst,
			MaxWait: cfg.MaxWait,
		})),
		resilience.WithBreaker(resilience.NewBreaker(resilience.BreakerConfig{
			MaxFailures:  cfg.BreakerFailures,
			ResetTimeout: cfg.BreakerReset,
			IsFailure:    isUpstreamFailure,
		})),
		resilience.WithTimeout(cfg.Timeout),
	)
}

func isUpstreamFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrGraphQL) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	return true
}

// Endpoint returns the GraphQL endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Breaker returns the guard's circuit breaker, or nil.
func (c *Client) Breaker() *resilience.Breaker { return c.guard.Breaker() }

// Fetch sends doc wrapped in "query { ... }" and returns the response's
// data object as map[string]any.
func (c *Client) Fetch(ctx context.Context, doc query.Document) (query.Raw, error) {
	data, err := resilience.Call(ctx, c.guard, func(ctx context.Context) (map[string]any, error) {
		return c.do(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Ping issues PingDocument.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Fetch(ctx, PingDocument)
	return err
}

type response struct {
	Data   map[string]any `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) do(ctx context.Context, doc query.Document) (map[string]any, error) {
	body := "query {\n" + string(doc) + "\n}"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("storefront: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/graphql")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storefront: send request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("storefront: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := bytes.TrimSpace(payload)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	if int64(len(payload)) > c.maxBody {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, c.maxBody)
	}

	var out response
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, &GraphQLError{Messages: msgs}
	}
	if out.Data == nil {
		return nil, ErrNoData
	}
	return out.Data, nil
}
