package memory

import (
	"context"
	"sync"
	"time"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

// UserRepository is an in-process ports.UserRepository with integer ids.
type UserRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[int64]*domain.User)}
}

func (r *UserRepository) FindByID(_ context.Context, id domain.ID) (*domain.User, error) {
	n, ok := id.Int64()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[n]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepository) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	if phone == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.find(func(u *domain.User) bool { return u.Phone == phone })
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == user.Username || u.Email == user.Email || (user.Phone != "" && u.Phone == user.Phone) {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	stored := clone(user)
	stored.ID = domain.IntID(r.nextID)
	r.byID[r.nextID] = stored
	return clone(stored), nil
}

func (r *UserRepository) UpdateRole(_ context.Context, id domain.ID, role domain.Role) (*domain.User, error) {
	u, err := r.update(id, func(u *domain.User) {
		u.Role = role
		u.UpdatedAt = time.Now().UTC()
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) TouchLastLogin(_ context.Context, id domain.ID, at time.Time) error {
	_, err := r.update(id, func(u *domain.User) {
		t := at
		u.LastLoginAt = &t
	})
	return err
}

// Delete removes an account. Used to exercise revocation.
func (r *UserRepository) Delete(id domain.ID) {
	if n, ok := id.Int64(); ok {
		r.mu.Lock()
		delete(r.byID, n)
		r.mu.Unlock()
	}
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) update(id domain.ID, fn func(*domain.User)) (*domain.User, error) {
	n, ok := id.Int64()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[n]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	fn(u)
	return clone(u), nil
}

func clone(u *domain.User) *domain.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}
