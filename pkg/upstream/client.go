package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"workspacehq/spyglass/pkg/auth"
	"workspacehq/spyglass/pkg/config"
	"workspacehq/spyglass/pkg/monitor"
)

// Client talks to one upstream API family. All requests carry a bearer
// token from the auth boundary and are tracked by the call monitor.
type Client struct {
	name    string
	baseURL string
	probe   string

	http    *http.Client
	tokens  auth.TokenSource
	monitor *monitor.Monitor
}

// NewClient creates a client for the named API family.
func NewClient(name string, cfg config.UpstreamConfig, tokens auth.TokenSource, mon *monitor.Monitor) *Client {
	transport := &http.Transport{
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultUpstreamTimeout
	}

	return &Client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		probe:   cfg.ProbePath,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		tokens:  tokens,
		monitor: mon,
	}
}

// Name returns the API family name.
func (c *Client) Name() string {
	return c.name
}

// Do executes a request against this upstream, path-relative to the base
// URL, with authentication and monitoring. The caller owns the response
// body.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("upstream %q: build request: %w", c.name, err)
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, &AuthError{API: c.name, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	return c.monitor.Do(ctx, c.name, c.http, req)
}

// Probe issues the configured minimal, side-effect-free request against
// this upstream. It satisfies the health checker's prober contract: nil for
// an HTTP success, a typed error otherwise.
func (c *Client) Probe(ctx context.Context) error {
	resp, err := c.Do(ctx, http.MethodGet, c.probe, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return c.classify(resp)
}

// classify turns a non-2xx probe response into the matching typed error.
func (c *Client) classify(resp *http.Response) error {
	switch {
	case resp.StatusCode < 400:
		return nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{API: c.name, Message: resp.Status}

	case resp.StatusCode == http.StatusTooManyRequests:
		var retryAfter time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{API: c.name, RetryAfter: retryAfter, Message: resp.Status}

	default:
		return &UpstreamError{API: c.name, StatusCode: resp.StatusCode, Message: resp.Status}
	}
}

// BuildClients creates one client per configured upstream family.
func BuildClients(upstreams map[string]config.UpstreamConfig, tokens auth.TokenSource, mon *monitor.Monitor) map[string]*Client {
	clients := make(map[string]*Client, len(upstreams))
	for name, cfg := range upstreams {
		clients[name] = NewClient(name, cfg, tokens, mon)
	}
	return clients
}
