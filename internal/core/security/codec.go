package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

// SessionTTL is the fixed lifetime of every session credential.
const SessionTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of a session credential.
type Claims struct {
	Subject    domain.ID        `json:"sub"`
	Username   string           `json:"username"`
	Role       domain.Role      `json:"role"`
	Email      string           `json:"email,omitempty"`
	FirstName  string           `json:"firstName,omitempty"`
	LastName   string           `json:"lastName,omitempty"`
	IsVerified bool             `json:"isVerified"`
	Issuer     string           `json:"iss,omitempty"`
	Provider   string           `json:"provider,omitempty"`
	IssuedAt   *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt  *jwt.NumericDate `json:"exp,omitempty"`
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return c.Issuer, nil }
func (c Claims) GetSubject() (string, error)                  { return c.Subject.String(), nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// ClaimsForUser builds the claim set minted at login and signup.
func ClaimsForUser(u *domain.User) Claims {
	return Claims{
		Subject:    u.ID,
		Username:   u.Username,
		Role:       u.Role,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsVerified: u.IsVerified,
	}
}

// Codec signs and verifies session credentials with an HMAC secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type CodecOption func(*Codec)

// WithClock overrides the time source used for iat/exp and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

func NewCodec(secret, issuer string, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("codec: signing secret is required")
	}
	c := &Codec{secret: []byte(secret), issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issuer is the iss claim stamped on credentials minted by this service.
func (c *Codec) Issuer() string { return c.issuer }

// Issue signs claims with a fresh iat and an exp SessionTTL later. An empty
// issuer is replaced by the service issuer.
func (c *Codec) Issue(claims Claims) (string, error) {
	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(SessionTTL))
	if claims.Issuer == "" {
		claims.Issuer = c.issuer
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// Decode verifies signature and expiry and requires sub, username and a known
// role. Every failure wraps ErrInvalidToken.
func (c *Codec) Decode(token string) (Claims, error) {
	var claims Claims
	if err := c.DecodeInto(token, &claims); err != nil {
		return Claims{}, err
	}
	if claims.Subject.IsZero() || claims.Username == "" || claims.Role == "" {
		return Claims{}, fmt.Errorf("%w: missing required claims", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return Claims{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

// DecodeInto checks signature and expiry only and fills claims, which must be
// a pointer. Callers with their own claim vocabulary validate the rest.
func (c *Codec) DecodeInto(token string, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if _, err := parser.ParseWithClaims(token, claims, c.key); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

func (c *Codec) key(*jwt.Token) (any, error) {
	return c.secret, nil
}
