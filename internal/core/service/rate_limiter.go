package service

import (
	"context"
	"fmt"
	"time"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// RateLimiter counts attempts per key in a fixed window. State lives in the
// injected store.
type RateLimiter struct {
	store  ports.RateLimitStore
	max    int64
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter falls back to 5 attempts per 15 minutes for non-positive values.
func NewRateLimiter(store ports.RateLimitStore, maxAttempts int, window time.Duration) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &RateLimiter{store: store, max: int64(maxAttempts), window: window, now: time.Now}
}

// Check returns domain.ErrRateLimited once the key has used its attempts.
func (l *RateLimiter) Check(ctx context.Context, key string) error {
	st, err := l.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if st.Count >= l.max && l.now().Before(st.ResetAt) {
		return domain.ErrRateLimited
	}
	return nil
}

func (l *RateLimiter) Increment(ctx context.Context, key string) error {
	if _, err := l.store.Increment(ctx, key, l.window); err != nil {
		return fmt.Errorf("rate limit increment: %w", err)
	}
	return nil
}

func (l *RateLimiter) Reset(ctx context.Context, key string) error {
	if err := l.store.Reset(ctx, key); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}
