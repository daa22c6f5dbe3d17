package retry

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPStatusCoder is implemented by errors that carry an upstream HTTP status.
type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	Factor       float64

	// Sleep suspends for d or until ctx ends. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:     3,
		InitialDelay: time.Second,
		Factor:       2.0,
	}
}

// StatusCode reports the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var coder HTTPStatusCoder
	if errors.As(err, &coder) {
		return coder.HTTPStatusCode()
	}
	return 0
}

// IsServiceUnavailable reports whether err carries exactly a 503 status.
func IsServiceUnavailable(err error) bool {
	return StatusCode(err) == http.StatusServiceUnavailable
}

// On503 runs op up to policy.Attempts times. Only a 503 failure on a
// non-final attempt is retried, after the current delay; the delay then grows
// by Factor. The final attempt's outcome is returned unchanged.
func On503[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error)) (T, error) {
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	delay := policy.InitialDelay
	for attempt := 1; attempt < policy.Attempts; attempt++ {
		result, err := op(ctx)
		if err == nil || !IsServiceUnavailable(err) {
			return result, err
		}

		if err := sleep(ctx, delay); err != nil {
			var zero T
			return zero, err
		}
		delay = time.Duration(float64(delay) * policy.Factor)
	}

	return op(ctx)
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
