// Package deezer provides the external preview lookup client.
package deezer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crateview/crateview-backend/internal/domain/preview"
)

const (
	// DefaultBaseURL is the Deezer API base URL
	DefaultBaseURL = "https://api.deezer.com"

	// DefaultUserAgent follows API guidelines
	DefaultUserAgent = "Crateview/1.0 (https://github.com/crateview/crateview-backend)"

	// DefaultTimeout for HTTP requests
	DefaultTimeout = 10 * time.Second

	// DefaultRateLimit - Deezer allows higher rate but we stay conservative
	DefaultRateLimit = 5 // 5 requests per second
)

// Sentinel errors surfaced to callers.
var (
	// ErrRateLimited indicates the remote rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTemporaryFailure indicates a transient upstream failure
	ErrTemporaryFailure = errors.New("temporary failure")
)

// Client searches Deezer for track previews. Preview URLs are hotlinked per
// Deezer ToS, never stored.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rateLimiter
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a Deezer API client. No API key is required for the
// public search endpoint.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: newRateLimiter(DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SearchResponse represents a Deezer track search response.
type SearchResponse struct {
	Data  []preview.Track `json:"data"`
	Total int             `json:"total"`
}

// SearchTracks runs a free-text track search. An empty result is a valid,
// non-error response meaning "no match".
func (c *Client) SearchTracks(ctx context.Context, query string) ([]preview.Track, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	searchURL := fmt.Sprintf("%s/search?q=%s&limit=5",
		c.baseURL, url.QueryEscape(query))

	log.Debug().
		Str("query", query).
		Str("url", searchURL).
		Msg("Searching Deezer for preview tracks")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success
	case http.StatusTooManyRequests:
		log.Warn().Str("query", query).Msg("Deezer rate limit exceeded")
		return nil, ErrRateLimited
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		log.Warn().Int("status", resp.StatusCode).Msg("Deezer temporary error")
		return nil, ErrTemporaryFailure
	default:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	log.Debug().
		Str("query", query).
		Int("results", len(searchResp.Data)).
		Msg("Deezer search complete")
	return searchResp.Data, nil
}

// rateLimiter implements a simple token bucket rate limiter
type rateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newRateLimiter(requestsPerSecond int) *rateLimiter {
	return &rateLimiter{
		interval: time.Second / time.Duration(requestsPerSecond),
	}
}

// Wait blocks until the next request slot is available or the context is
// cancelled.
func (r *rateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	next := r.last.Add(r.interval)
	if next.Before(now) {
		next = now
	}
	r.last = next
	wait := next.Sub(now)
	r.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
