// Package retry classifies transient failures and reruns short network
// operations with capped, jittered exponential backoff. Search, fetch, and
// model calls all degrade gracefully, so retries stay small: a unit of work
// that keeps failing is dropped by its caller, never requeued.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StatusError marks an HTTP response whose status makes the request worth
// retrying (429, 5xx) or not (4xx). It wraps no body; callers that need the
// payload read it before wrapping.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Transient reports whether the status code indicates a server-side issue
// that is safe to retry.
func (e *StatusError) Transient() bool {
	switch e.Code {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// IsTransient reports whether err is worth retrying: a transient StatusError,
// a network timeout, a connection-level failure, or a wrapped error matching
// common transport failure text.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// Config controls attempt count and backoff shape. The zero value gets
// sensible defaults from apply.
type Config struct {
	// Attempts is the total number of tries including the first. Default 3.
	Attempts int
	// BaseDelay is the delay before the first retry. Default 500ms.
	BaseDelay time.Duration
	// MaxDelay caps the backoff. Default 10s.
	MaxDelay time.Duration
	// Op names the operation in retry logs.
	Op string
}

func (c Config) apply() Config {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	return c
}

// Do runs fn until it succeeds, fails non-transiently, exhausts attempts, or
// the context ends. The last error is returned as-is so callers can unwrap.
func Do[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.apply()

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) || attempt >= cfg.Attempts-1 {
			break
		}

		zap.L().Warn("retrying after transient failure",
			zap.String("op", cfg.Op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff(attempt, cfg))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// backoff doubles the base delay per attempt, caps it at MaxDelay, and adds
// up to 25% random jitter.
func backoff(attempt int, cfg Config) time.Duration {
	d := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	d += d * 0.25 * rand.Float64()
	return time.Duration(d)
}
