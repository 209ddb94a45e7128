// Package retry re-issues transient request failures with exponential backoff
// and jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// ErrExhausted is joined into the final error when every attempt failed with a
// retryable status.
var ErrExhausted = errors.New("retries exhausted")

// Config holds retry configuration.
type Config struct {
	// MaxRetries is the number of attempts after the first one. Zero disables
	// retries; negative values are treated as zero.
	MaxRetries int
	// InitialDelay is the delay before the first retry (default: 1s).
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts (default: 16s).
	MaxDelay time.Duration
	// Multiplier is the backoff multiplier (default: 2.0).
	Multiplier float64
	// JitterFactor randomizes each delay by up to this fraction (default: 0.2).
	JitterFactor float64
	// RetryableStatusCodes are the HTTP statuses worth another attempt.
	RetryableStatusCodes []int
	Logger               *slog.Logger
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     16 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.2,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,     // 429
			http.StatusInternalServerError, // 500
			http.StatusBadGateway,          // 502
			http.StatusServiceUnavailable,  // 503
			http.StatusGatewayTimeout,      // 504
		},
		Logger: slog.Default(),
	}
}

// Retryer decides whether and when to re-issue a failed request.
type Retryer struct {
	config    Config
	retryable map[int]bool
}

// New creates a Retryer, filling unset fields from DefaultConfig.
func New(config Config) *Retryer {
	defaults := DefaultConfig()
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = defaults.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = defaults.MaxDelay
	}
	if config.MaxDelay < config.InitialDelay {
		config.MaxDelay = config.InitialDelay
	}
	if config.Multiplier < 1 {
		config.Multiplier = defaults.Multiplier
	}
	if config.JitterFactor <= 0 || config.JitterFactor > 1 {
		config.JitterFactor = defaults.JitterFactor
	}
	if len(config.RetryableStatusCodes) == 0 {
		config.RetryableStatusCodes = defaults.RetryableStatusCodes
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	retryable := make(map[int]bool, len(config.RetryableStatusCodes))
	for _, code := range config.RetryableStatusCodes {
		retryable[code] = true
	}

	return &Retryer{
		config:    config,
		retryable: retryable,
	}
}

// Error is the final failure of a retried operation.
type Error struct {
	// StatusCode is the HTTP status of the last attempt, or 0 if it had none.
	StatusCode int
	Attempts   int
	Err        error
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("after %d attempt(s): %v", e.Attempts, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether statusCode is worth another attempt.
func (r *Retryer) IsRetryable(statusCode int) bool {
	return r.retryable[statusCode]
}

// MaxRetries returns the configured number of retries.
func (r *Retryer) MaxRetries() int {
	return r.config.MaxRetries
}

// Backoff returns the delay before retry number attempt (1-based):
// InitialDelay * Multiplier^(attempt-1), capped at MaxDelay, then jittered.
func (r *Retryer) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(r.config.InitialDelay)
	for i := 1; i < attempt && delay < float64(r.config.MaxDelay); i++ {
		delay *= r.config.Multiplier
	}
	delay = min(delay, float64(r.config.MaxDelay))

	jitterRange := delay * r.config.JitterFactor
	delay += rand.Float64()*2*jitterRange - jitterRange

	return max(time.Duration(delay), time.Millisecond)
}

// Do calls op until it succeeds, fails with a status that is not retryable,
// runs out of retries or ctx is done. op reports the HTTP status of its
// failure, or 0 when there was none.
func Do[T any](ctx context.Context, r *Retryer, op func(ctx context.Context) (T, int, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, statusCode, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				r.config.Logger.Info("request succeeded after retry",
					slog.Int("attempts", attempt),
				)
			}
			return result, nil
		}

		if !r.IsRetryable(statusCode) {
			return zero, &Error{StatusCode: statusCode, Attempts: attempt, Err: err}
		}

		if attempt > r.config.MaxRetries {
			r.config.Logger.Error("giving up on request",
				slog.Int("attempts", attempt),
				slog.Int("status_code", statusCode),
				slog.Any("error", err),
			)
			return zero, &Error{
				StatusCode: statusCode,
				Attempts:   attempt,
				Err:        errors.Join(ErrExhausted, err),
			}
		}

		delay := r.Backoff(attempt)
		r.config.Logger.Warn("retrying request",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", r.config.MaxRetries),
			slog.Int("status_code", statusCode),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
