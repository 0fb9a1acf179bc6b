// Package workqueue gates calls to external services behind a bounded
// worker pool and a token-bucket rate limiter.
package workqueue

import (
	"context"

	"golang.org/x/time/rate"
)

// Default limits for the upstream transaction provider.
const (
	DefaultConcurrency = 2
	DefaultPerSecond   = 2.0
)

// Queue limits both in-flight concurrency and submission rate. Retries of
// a gated call must go back through Do so they compete fairly for slots.
type Queue struct {
	limiter *rate.Limiter
	slots   chan struct{}
}

// New creates a queue with the given concurrency cap and submissions/sec.
func New(concurrency int, perSecond float64) *Queue {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if perSecond <= 0 {
		perSecond = DefaultPerSecond
	}
	return &Queue{
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		slots:   make(chan struct{}, concurrency),
	}
}

// Do runs fn once a slot and a rate token are available. The context
// bounds both the wait and the call itself.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case q.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-q.slots }()

	if err := q.limiter.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
