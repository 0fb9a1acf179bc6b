package ingestion

import (
	"context"
	"math/rand"
	"time"
)

// Default retry configuration for transient provider failures.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultFactor      = 2.0
)

// RetryPolicy is exponential backoff with full jitter, capped.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Factor      float64
}

// DefaultRetryPolicy returns the default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Factor:      DefaultFactor,
	}
}

// delay returns the sleep before the given retry attempt (1-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Factor
	}
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	// Full jitter: uniform in (0, d].
	return time.Duration(rand.Float64() * d)
}

// Sleep waits for the backoff delay before the given retry attempt
// (1-based) or until the context is cancelled.
func (p RetryPolicy) Sleep(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay(attempt)):
		return nil
	}
}
