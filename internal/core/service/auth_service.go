package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
	"github.com/harvestlink/marketplace/internal/core/security"
)

// AuthService implements signup, login and administrative role changes
// against the relational user store.
type AuthService struct {
	repo    ports.UserRepository
	codec   *security.Codec
	hasher  *security.Hasher
	limiter *RateLimiter
	events  ports.LoginEventQueue
	log     zerolog.Logger
	now     func() time.Time
}

type AuthOption func(*AuthService)

// WithRateLimiter throttles failed logins per identifier and client address.
func WithRateLimiter(l *RateLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = l }
}

// WithLoginEvents publishes a LoginEvent after every successful login.
func WithLoginEvents(q ports.LoginEventQueue) AuthOption {
	return func(s *AuthService) { s.events = q }
}

func NewAuthService(repo ports.UserRepository, codec *security.Codec, hasher *security.Hasher, log zerolog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{repo: repo, codec: codec, hasher: hasher, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates a customer account and returns it with a fresh session
// credential.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case username == "":
		return nil, "", &domain.FieldError{Field: "username", Message: "Username is required"}
	case email == "":
		return nil, "", &domain.FieldError{Field: "email", Message: "Email is required"}
	case in.Password == "":
		return nil, "", &domain.FieldError{Field: "password", Message: "Password is required"}
	case len(in.Password) > security.MaxPasswordBytes:
		return nil, "", &domain.FieldError{Field: "password", Message: "Password must be at most 72 bytes", Err: security.ErrPasswordTooLong}
	}

	if err := s.ensureFree("username", "Username already exists", func() (*domain.User, error) {
		return s.repo.FindByUsername(ctx, username)
	}); err != nil {
		return nil, "", err
	}
	if err := s.ensureFree("email", "Email already exists", func() (*domain.User, error) {
		return s.repo.FindByEmail(ctx, email)
	}); err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		// Lost a race with a concurrent signup after the lookups passed.
		return nil, "", &domain.FieldError{Field: "username", Message: "Username or email already exists", Err: err}
	}
	if err != nil {
		return nil, "", err
	}

	token, err := s.codec.Issue(security.ClaimsForUser(created))
	if err != nil {
		return nil, "", err
	}

	s.log.Info().Str("user_id", created.ID.String()).Str("username", created.Username).Msg("account created")
	return created, token, nil
}

func (s *AuthService) ensureFree(field, msg string, find func() (*domain.User, error)) error {
	_, err := find()
	switch {
	case err == nil:
		return &domain.FieldError{Field: field, Message: msg, Err: domain.ErrUserExists}
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return fmt.Errorf("check %s uniqueness: %w", field, err)
	}
}

// Login authenticates identifier (username, then email, then phone) and
// password. Unknown identifiers and wrong passwords both return
// domain.ErrInvalidCredentials after the same amount of hashing work.
func (s *AuthService) Login(ctx context.Context, identifier, password, clientIP string) (string, *domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	key := loginKey(identifier, clientIP)
	if s.limiter != nil {
		if err := s.limiter.Check(ctx, key); err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				return "", nil, err
			}
			s.log.Warn().Err(err).Msg("rate limit store unavailable, allowing attempt")
		}
	}

	user, err := s.lookup(ctx, identifier)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.hasher.VerifyDummy(password)
		s.recordFailure(ctx, key)
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordFailure(ctx, key)
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("reset login attempts")
		}
	}

	token, err := s.codec.Issue(security.ClaimsForUser(user))
	if err != nil {
		return "", nil, err
	}

	if s.events != nil {
		s.events.Enqueue(domain.LoginEvent{
			UserID:   user.ID,
			Username: user.Username,
			ClientIP: clientIP,
			At:       s.now().UTC(),
		})
	}
	return token, user, nil
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	finders := []func(context.Context, string) (*domain.User, error){
		s.repo.FindByUsername,
		func(ctx context.Context, v string) (*domain.User, error) {
			return s.repo.FindByEmail(ctx, strings.ToLower(v))
		},
		s.repo.FindByPhone,
	}
	for _, find := range finders {
		user, err := find(ctx, identifier)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Increment(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("record failed login attempt")
	}
}

// SetRole is the only way to change an account's role.
func (s *AuthService) SetRole(ctx context.Context, id domain.ID, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id.String()).Str("role", string(role)).Msg("role updated")
	return user, nil
}

func loginKey(identifier, clientIP string) string {
	return "login:" + strings.ToLower(identifier) + ":" + clientIP
}
