package youtube

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"time"
)

// retryConfig controls HTTP retry behavior.
type retryConfig struct {
	maxRetries  int
	initialWait time.Duration
	maxWait     time.Duration
	multiplier  float64
}

var defaultRetry = retryConfig{
	maxRetries:  3,
	initialWait: 500 * time.Millisecond,
	maxWait:     10 * time.Second,
	multiplier:  2.0,
}

// retryHTTP executes an HTTP request function with exponential backoff.
// Retries on transient network errors and retryable status codes; returns
// immediately on non-retryable errors or context cancellation.
func retryHTTP(ctx context.Context, rc retryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, err := fn()
		if err == nil {
			if !isRetryableStatus(resp.StatusCode) {
				return resp, nil
			}
			resp.Body.Close()
			err = &httpStatusError{StatusCode: resp.StatusCode}
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
		if attempt < rc.maxRetries {
			wait := time.Duration(float64(rc.initialWait) * math.Pow(rc.multiplier, float64(attempt)))
			if wait > rc.maxWait {
				wait = rc.maxWait
			}
			slog.Debug("retrying request",
				slog.Int("attempt", attempt+1), slog.Duration("wait", wait), slog.Any("error", err))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

// httpStatusError wraps a retryable HTTP status code.
type httpStatusError struct {
	StatusCode int
}

func (e *httpStatusError) Error() string {
	return http.StatusText(e.StatusCode)
}

func isRetryable(err error) bool {
	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
