package ports

import (
	"context"
	"time"
)

// RateLimitState is the counter kept per key.
type RateLimitState struct {
	Count   int64
	ResetAt time.Time
}

// RateLimitStore keeps attempt counters outside process memory so several
// replicas share them. A missing key returns the zero state.
type RateLimitStore interface {
	Get(ctx context.Context, key string) (RateLimitState, error)
	Increment(ctx context.Context, key string, window time.Duration) (RateLimitState, error)
	Reset(ctx context.Context, key string) error
}
