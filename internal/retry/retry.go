package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// StatusError reports an unexpected HTTP status from a delivery endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// WithBackoff runs operation until it succeeds, returns a non-retryable
// error, or MaxRetries retries have been spent. Delays grow exponentially
// from BaseDelay with up to one BaseDelay of jitter.
func WithBackoff(ctx context.Context, config Config, operation func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}

		if attempt >= config.MaxRetries {
			return fmt.Errorf("operation failed after %d attempts: %w", attempt+1, err)
		}

		delay := config.BaseDelay * time.Duration(1<<attempt)
		if config.BaseDelay > 0 {
			delay += rand.N(config.BaseDelay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// isRetryableError determines if an error is worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return HTTPStatusRetryable(se.Code)
	}

	errStr := strings.ToLower(err.Error())

	// Network-level errors are generally retryable
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "network") {
		return true
	}

	if strings.Contains(errStr, "status 5") || strings.Contains(errStr, "status 429") {
		return true
	}
	if strings.Contains(errStr, "status 4") {
		return false
	}

	// Unknown errors are retried.
	return true
}

// HTTPStatusRetryable reports whether a response status is worth retrying:
// server errors (5xx) and rate limiting (429).
func HTTPStatusRetryable(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
