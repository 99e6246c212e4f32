// Package retry runs calls to external services with exponential backoff.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Config holds the configuration for retry logic.
type Config struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultConfig returns the retry configuration used by the HTTP clients.
func DefaultConfig() Config {
	return Config{
		MaxRetries:      2,
		BaseDelay:       200 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffMultiple: 2.0,
	}
}

// ErrorChecker decides whether an attempt's outcome should trigger a retry.
type ErrorChecker func(err error, statusCode int, responseBody []byte) bool

// Func is one attempt of a retryable call.
type Func[T any] func(attempt int) (result T, statusCode int, responseBody []byte, err error)

// Options configures retry behaviour.
type Options struct {
	Config       Config
	ErrorChecker ErrorChecker
	Logger       *slog.Logger
	APIName      string
}

// delay computes the backoff before the given retry using exponential growth.
func (c Config) delay(retry int) time.Duration {
	mult := c.BackoffMultiple
	if mult <= 0 {
		mult = 1
	}
	d := time.Duration(float64(c.BaseDelay) * math.Pow(mult, float64(retry)))
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// Execute runs fn until it succeeds, returns a non-retryable outcome, or the
// retries are used up. Context cancellation stops waiting between attempts.
func Execute[T any](ctx context.Context, opts Options, fn Func[T]) (T, error) {
	var zero T
	maxAttempts := opts.Config.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		lastErr    error
		lastStatus int
		lastBody   []byte
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			d := opts.Config.delay(attempt - 1)
			opts.log("retrying call", "attempt", attempt+1, "max_attempts", maxAttempts, "delay", d)

			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		result, status, body, err := fn(attempt)
		lastErr, lastStatus, lastBody = err, status, body

		if opts.ErrorChecker == nil || !opts.ErrorChecker(err, status, body) {
			if err != nil {
				return zero, err
			}
			if attempt > 0 {
				opts.log("call succeeded after retry", "attempt", attempt+1)
			}
			return result, nil
		}
		opts.log("retryable failure", "attempt", attempt+1, "status", status, "error", err)
	}

	return zero, &RetryExhaustedError{
		APIName:        opts.APIName,
		MaxAttempts:    maxAttempts,
		LastStatusCode: lastStatus,
		LastResponse:   lastBody,
		Err:            lastErr,
	}
}

func (o Options) log(msg string, args ...any) {
	if o.Logger == nil {
		return
	}
	o.Logger.Debug(msg, append([]any{"api", o.APIName}, args...)...)
}

// TransientHTTP retries network failures, rate limiting and server errors.
// Context cancellation and other 4xx responses are final.
func TransientHTTP(err error, statusCode int, _ []byte) bool {
	switch {
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return true
	case statusCode != 0:
		return false
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// RetryExhaustedError is returned when every attempt failed with a retryable outcome.
type RetryExhaustedError struct {
	APIName        string
	MaxAttempts    int
	LastStatusCode int
	LastResponse   []byte
	Err            error
}

func (e *RetryExhaustedError) Error() string {
	msg := "retry attempts exhausted for " + e.APIName + " API after " + strconv.Itoa(e.MaxAttempts) + " attempts"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else if e.LastStatusCode != 0 {
		msg += ": status " + strconv.Itoa(e.LastStatusCode)
	}
	return msg
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}
