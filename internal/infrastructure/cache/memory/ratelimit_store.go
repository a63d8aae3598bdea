// Package memory holds in-process stand-ins for shared stores. They are only
// correct for a single replica.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/harvestlink/marketplace/internal/core/ports"
)

const cleanupInterval = time.Minute

type entry struct {
	count   int64
	resetAt time.Time
}

// RateLimitStore is a go-cache backed ports.RateLimitStore.
type RateLimitStore struct {
	mu    sync.Mutex
	items *cache.Cache
	now   func() time.Time
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{
		items: cache.New(cache.NoExpiration, cleanupInterval),
		now:   time.Now,
	}
}

func (s *RateLimitStore) Get(_ context.Context, key string) (ports.RateLimitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return ports.RateLimitState{}, nil
	}
	return ports.RateLimitState{Count: e.count, ResetAt: e.resetAt}, nil
}

func (s *RateLimitStore) Increment(_ context.Context, key string, window time.Duration) (ports.RateLimitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		e = entry{resetAt: s.now().Add(window)}
	}
	e.count++
	s.items.Set(key, e, e.resetAt.Sub(s.now()))
	return ports.RateLimitState{Count: e.count, ResetAt: e.resetAt}, nil
}

func (s *RateLimitStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Delete(key)
	return nil
}

// live checks resetAt against the injected clock as well as go-cache's own
// expiry, which follows the wall clock.
func (s *RateLimitStore) live(key string) (entry, bool) {
	v, ok := s.items.Get(key)
	if !ok {
		return entry{}, false
	}
	e := v.(entry)
	if !s.now().Before(e.resetAt) {
		s.items.Delete(key)
		return entry{}, false
	}
	return e, true
}
