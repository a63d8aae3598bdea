package service

import (
	"context"
	"sync"
	"time"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
)

type stubUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	nextID    int64
	findErr   error
	createErr error
	touched   map[string]time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User), touched: make(map[string]time.Time)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id domain.ID) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID.Equal(id) })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Phone != "" && u.Phone == phone })
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = domain.IntID(r.nextID)
	r.users[created.Username] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id domain.ID, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID.Equal(id) {
			u.Role = role
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id domain.ID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[id.String()] = at
	return nil
}

type stubRateStore struct {
	state map[string]ports.RateLimitState
	now   func() time.Time
	err   error
}

func newStubRateStore() *stubRateStore {
	return &stubRateStore{state: make(map[string]ports.RateLimitState), now: time.Now}
}

func (s *stubRateStore) Get(_ context.Context, key string) (ports.RateLimitState, error) {
	if s.err != nil {
		return ports.RateLimitState{}, s.err
	}
	return s.state[key], nil
}

func (s *stubRateStore) Increment(_ context.Context, key string, window time.Duration) (ports.RateLimitState, error) {
	if s.err != nil {
		return ports.RateLimitState{}, s.err
	}
	st := s.state[key]
	if st.Count == 0 {
		st.ResetAt = s.now().Add(window)
	}
	st.Count++
	s.state[key] = st
	return st, nil
}

func (s *stubRateStore) Reset(_ context.Context, key string) error {
	delete(s.state, key)
	return nil
}

type stubQueue struct {
	events []domain.LoginEvent
}

func (q *stubQueue) Enqueue(ev domain.LoginEvent) bool {
	q.events = append(q.events, ev)
	return true
}
