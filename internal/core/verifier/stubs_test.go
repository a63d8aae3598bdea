package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/security"
)

const testIssuer = "harvestlink"

var testNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func newTestCodec(t *testing.T) *security.Codec {
	t.Helper()
	c, err := security.NewCodec("verifier-secret", testIssuer, security.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func mustIssue(t *testing.T, c *security.Codec, claims security.Claims) string {
	t.Helper()
	token, err := c.Issue(claims)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

type stubUsers struct {
	byID  map[string]*domain.User
	err   error
	calls int
}

func newStubUsers(users ...*domain.User) *stubUsers {
	s := &stubUsers{byID: make(map[string]*domain.User)}
	for _, u := range users {
		s.byID[u.ID.String()] = u
	}
	return s
}

func (s *stubUsers) FindByID(_ context.Context, id domain.ID) (*domain.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.byID[id.String()]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *stubUsers) FindByUsername(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) FindByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) FindByPhone(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}

func (s *stubUsers) UpdateRole(context.Context, domain.ID, domain.Role) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) TouchLastLogin(context.Context, domain.ID, time.Time) error { return nil }

type stubManaged struct {
	profile *domain.ExternalProfile
	err     error
	calls   int
}

func (s *stubManaged) VerifyCredential(context.Context, string) (*domain.ExternalProfile, error) {
	s.calls++
	return s.profile, s.err
}

// scripted returns a fixed Result and counts calls.
type scripted struct {
	method  domain.AuthMethod
	result  Result
	panics  bool
	catches bool
	calls   int
}

func (s *scripted) Method() domain.AuthMethod { return s.method }

func (s *scripted) CatchAll() bool { return s.catches }

func (s *scripted) Verify(context.Context, string) Result {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return s.result
}

func okResult(method domain.AuthMethod) Result {
	return Success(domain.Identity{ID: domain.IntID(1), Username: "u", Role: domain.RoleCustomer, AuthMethod: method})
}
