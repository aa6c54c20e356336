// Package fetch wraps outbound HTTP requests with connection reuse, a
// fixed per-request timeout, and automatic retry with exponential
// backoff for transient failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/gohoops/internal/logger"
)

const (
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 15 * time.Second

	// maxRetries is the number of automatic retries for transient
	// failures.
	maxRetries = 3

	// initialBackoff is the first retry delay; it doubles per attempt.
	initialBackoff = time.Second

	// DefaultForbiddenBackoff is how long to sleep before retrying a
	// 403 response. TeamRankings answers 403 when rate limited and
	// recovers after a long pause, so the 403 path retries
	// indefinitely rather than failing the request.
	DefaultForbiddenBackoff = 5 * time.Minute

	// DefaultUserAgent is sent on every request. barttorvik.com
	// serves HTML instead of CSV to clients without a browser-like
	// User-Agent.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxResponseBodyBytes limits the size of fetched responses.
	maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB
)

// retryableStatuses are server-side and rate-limit failures worth
// retrying automatically.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// ErrCancelled is returned when a cancellation probe interrupts the
// indefinite 403 retry loop.
var ErrCancelled = errors.New("fetch cancelled")

// StatusError reports a non-2xx response that was not retried away.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// Config configures the fetch client.
type Config struct {
	Timeout          time.Duration
	UserAgent        string
	ForbiddenBackoff time.Duration
}

// Client is a connection-pooled HTTP client with retry logic.
type Client struct {
	httpClient       *http.Client
	userAgent        string
	forbiddenBackoff time.Duration
	log              logger.Interface

	// sleep is replaceable in tests so backoff never literally waits.
	sleep func(time.Duration)
}

// NewClient creates a fetch client. Zero config fields fall back to
// package defaults.
func NewClient(cfg Config, log logger.Interface) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.ForbiddenBackoff == 0 {
		cfg.ForbiddenBackoff = DefaultForbiddenBackoff
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: http.DefaultTransport,
		},
		userAgent:        cfg.UserAgent,
		forbiddenBackoff: cfg.ForbiddenBackoff,
		log:              log,
		sleep:            time.Sleep,
	}
}

// SetSleep replaces the backoff sleep function. Test hook.
func (c *Client) SetSleep(fn func(time.Duration)) {
	c.sleep = fn
}

// Get fetches a URL, retrying transient failures (429, 5xx, network
// errors) up to three times with exponential backoff. Non-retryable
// statuses return a *StatusError immediately.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	backoff := initialBackoff

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Debug("retrying fetch", "url", url, "attempt", attempt)
			c.sleep(backoff)
			backoff *= 2
		}

		body, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !retryableStatuses[statusErr.StatusCode] {
			return nil, err
		}
	}

	return nil, fmt.Errorf("fetch %s: retries exhausted: %w", url, lastErr)
}

// GetWithForbiddenRetry fetches like Get, but treats a 403 response as
// a rate-limit signal rather than a failure: it sleeps for the
// forbidden backoff and retries the same request indefinitely. The
// cancelled probe is checked before each sleep; a cancelled task
// returns ErrCancelled instead of sleeping.
func (c *Client) GetWithForbiddenRetry(
	ctx context.Context,
	url string,
	cancelled func() bool,
) ([]byte, error) {
	attempt := 0
	for {
		body, err := c.Get(ctx, url)

		var statusErr *StatusError
		if err == nil || !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
			return body, err
		}

		if cancelled != nil && cancelled() {
			return nil, ErrCancelled
		}

		attempt++
		c.log.Warn("received 403, sleeping before retry",
			"url", url,
			"attempt", attempt,
			"backoff", c.forbiddenBackoff.String(),
		)
		c.sleep(c.forbiddenBackoff)
	}
}

// do performs a single GET request.
func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}
