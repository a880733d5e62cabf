package httpretry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAttempts  = 5
	DefaultBaseDelay = 1 * time.Second
	DefaultMaxDelay  = 10 * time.Second
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// NewStatusError builds a StatusError from a response whose body has
// already been read.
func NewStatusError(op string, resp *http.Response, body []byte) *StatusError {
	retryAfter, _ := ParseRetryAfter(resp.Header.Get("Retry-After"))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RetryAfter: retryAfter,
	}
}

// HasStatus reports whether err is a StatusError with the given code.
func HasStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// Policy configures retries.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Sleeper replaces timer sleeps (useful for tests).
	Sleeper func(time.Duration)
	// Retryable marks additional errors as retryable.
	Retryable func(error) bool
}

// Default returns the standard policy.
func Default() Policy {
	return Policy{Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay, MaxDelay: DefaultMaxDelay}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		delay, retry := p.delay(ctx, err, attempt, attempts)
		if !retry {
			if attempt == 1 {
				return err
			}
			return fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (p Policy) attempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}

func (p Policy) delay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if p.Retryable != nil && p.Retryable(err) {
		return p.Backoff(attempt), true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return p.capDelay(statusErr.RetryAfter), true
			}
			return p.Backoff(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.Backoff(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return p.Backoff(attempt), true
	}
	return 0, false
}

// Backoff returns the delay before the attempt following attempt (1-based):
// base, base*2, base*4, ... capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base < 0 {
		base = DefaultBaseDelay
	}
	if base == 0 {
		return 0
	}
	maxDelay := p.maxDelay()
	if attempt <= 0 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return p.capDelay(delay)
}

func (p Policy) maxDelay() time.Duration {
	if p.MaxDelay > 0 {
		return p.MaxDelay
	}
	return DefaultMaxDelay
}

func (p Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := p.maxDelay(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

// Sleep waits for delay or until ctx is done.
func (p Policy) Sleep(ctx context.Context, delay time.Duration) error {
	return p.sleep(ctx, delay)
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if p.Sleeper != nil {
		p.Sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseRetryAfter parses a Retry-After header in seconds or HTTP-date form.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
