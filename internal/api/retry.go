package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// RetryConfig configures exponential backoff for read-only API calls.
type RetryConfig struct {
	MaxRetries int           // additional attempts after the first (default 2)
	BaseDelay  time.Duration // first retry delay, doubled each attempt (default 2s)
	OnRetry    func(attempt int, delay time.Duration, err error)
}

// DefaultRetryConfig is the retry policy applied to read-only calls.
// Mutating calls (create session, send message, approve plan) are always
// single-shot to avoid duplicate side effects.
var DefaultRetryConfig = RetryConfig{MaxRetries: 2, BaseDelay: 2 * time.Second}

// retryWithBackoff retries fn with exponential backoff as long as the
// failure is transient (5xx, network error, timeout). Permanent failures
// (4xx, malformed responses) are returned immediately.
// Delays: BaseDelay, BaseDelay*2, BaseDelay*4, ...
func retryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = 2 * time.Second
	}

	delay := cfg.BaseDelay
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		if !isTransient(err) {
			return err
		}
		if attempt >= cfg.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, err)
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}

		// Sleep with context awareness.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
	}
}

// isTransient reports whether err is worth retrying: server-side 5xx
// responses, timeouts, and network-level failures qualify; everything
// else is permanent.
func isTransient(err error) bool {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Status >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
