package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harvestlink/marketplace/internal/core/ports"
)

const keyPrefix = "ratelimit:"

// RateLimitStore keeps fixed-window counters in Redis so every replica sees
// the same attempts. Key format: ratelimit:<key>
type RateLimitStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRateLimitStore(client *redis.Client) *RateLimitStore {
	return &RateLimitStore{client: client, now: time.Now}
}

func (s *RateLimitStore) Get(ctx context.Context, key string) (ports.RateLimitState, error) {
	pipe := s.client.Pipeline()
	get := pipe.Get(ctx, keyPrefix+key)
	ttl := pipe.PTTL(ctx, keyPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return ports.RateLimitState{}, fmt.Errorf("rate limit get: %w", err)
	}

	count, err := get.Int64()
	if errors.Is(err, redis.Nil) {
		return ports.RateLimitState{}, nil
	}
	if err != nil {
		return ports.RateLimitState{}, fmt.Errorf("rate limit get: %w", err)
	}
	return ports.RateLimitState{Count: count, ResetAt: s.resetAt(ttl.Val())}, nil
}

// Increment bumps the counter. The window starts with the first attempt and
// is not extended by later ones; a key found without a TTL gets one.
func (s *RateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (ports.RateLimitState, error) {
	k := keyPrefix + key
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return ports.RateLimitState{}, fmt.Errorf("rate limit increment: %w", err)
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return ports.RateLimitState{}, fmt.Errorf("rate limit expire: %w", err)
		}
		remaining = window
	}
	return ports.RateLimitState{Count: incr.Val(), ResetAt: s.resetAt(remaining)}, nil
}

func (s *RateLimitStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}

func (s *RateLimitStore) resetAt(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return s.now()
	}
	return s.now().Add(ttl)
}
