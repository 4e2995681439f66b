package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/liststore/observe"
	"github.com/jonwraymond/liststore/resilience"
)

const maxErrorBody = 4 << 10

// Client talks to the REST API.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: every request honors ctx cancellation.
//   - Errors: non-2xx responses are *StatusError; undecodable bodies wrap
//     ErrDecode and are marked permanent for the resilience package.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
	logger    observe.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
// Default: a client with a 30s timeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTokenSource authenticates requests with ts.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client rooted at baseURL, e.g. "https://host/api/0/".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: "liststore",
		logger:    observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// get issues a GET for the path built from elems, decodes the JSON body
// into out and returns the response headers.
func (c *Client) get(ctx context.Context, params url.Values, out any, elems ...string) (http.Header, error) {
	u := c.baseURL.JoinPath(elems...)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("api: create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, resilience.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: GET %s: %w", u.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			Method:     http.MethodGet,
			URL:        u.Path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(resp.Body),
		}
		c.logger.Warn(ctx, "api request rejected",
			observe.F("path", u.Path),
			observe.F("status", resp.StatusCode),
		)
		return nil, statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("%w: %s: %v", ErrDecode, u.Path, err))
	}
	return resp.Header, nil
}

// errorDetail extracts the "detail" message the API puts in error bodies,
// falling back to the trimmed body text.
func errorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(raw))
}
