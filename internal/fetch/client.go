package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultRPS      = 3
	defaultAttempts = 3

	// Base retry delay. The wait before attempt n is n-1 times this.
	retryDelay = 2 * time.Second
)

// Client is a rate limited JSON GET client shared by everything that talks to
// the explorer and the Flyover APIs. All calls through one Client are paced by
// a single limiter so the upstream sees a steady request rate no matter which
// collector is running.
type Client struct {
	http       *http.Client
	limiter    ratelimit.Limiter
	attempts   int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewClient(timeout time.Duration, rps, attempts int, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if rps <= 0 {
		rps = defaultRPS
	}
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		limiter:    ratelimit.New(rps),
		attempts:   attempts,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// GetJSON fetches rawURL with the given query parameters and decodes the
// response body into out. Transient failures are retried with linear backoff;
// the error from the final attempt is returned once retries are exhausted.
// Non-retryable errors return immediately.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * c.retryDelay
			c.logger.Warn("request failed, backing off",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt-1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := sleepContext(ctx, delay); err != nil {
				return err
			}
		}
		err := c.getJSONOnce(ctx, rawURL, params, out)
		if err == nil {
			return nil
		}
		if !Transient(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("all %d attempts failed: %w", c.attempts, lastErr)
}

func (c *Client) getJSONOnce(ctx context.Context, rawURL string, params url.Values, out any) error {
	c.limiter.Take()

	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", rawURL, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
