// Package ratelimit throttles login attempts per caller origin.
package ratelimit

import (
	"context"
	"time"
)

// DefaultWindow is the counting window for login attempts.
const DefaultWindow = time.Minute

// Decision is the outcome of one attempt.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter counts attempts for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Noop allows everything. It is used when throttling is disabled.
type Noop struct{}

func (Noop) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}

// Make sure we conform to the interface
var (
	_ Limiter = Noop{}
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*LocalLimiter)(nil)
)
