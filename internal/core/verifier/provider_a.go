package verifier

import (
	"context"
	"errors"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/security"
)

// IDTokenVerifier is satisfied by *oidc.IDTokenVerifier.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

type oidcClaims struct {
	Subject           domain.ID        `json:"sub"`
	Issuer            string           `json:"iss"`
	Audience          jwt.ClaimStrings `json:"aud,omitempty"`
	Email             string           `json:"email"`
	EmailVerified     bool             `json:"email_verified"`
	PreferredUsername string           `json:"preferred_username"`
	GivenName         string           `json:"given_name"`
	FamilyName        string           `json:"family_name"`
	IssuedAt          *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt         *jwt.NumericDate `json:"exp,omitempty"`
	NotBefore         *jwt.NumericDate `json:"nbf,omitempty"`
}

func (c oidcClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c oidcClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c oidcClaims) GetNotBefore() (*jwt.NumericDate, error)      { return c.NotBefore, nil }
func (c oidcClaims) GetIssuer() (string, error)                   { return c.Issuer, nil }
func (c oidcClaims) GetSubject() (string, error)                  { return c.Subject.String(), nil }
func (c oidcClaims) GetAudience() (jwt.ClaimStrings, error)       { return c.Audience, nil }

// ProviderA accepts OIDC-shaped tokens from one trusted issuer. Tokens signed
// with the service secret are checked locally; when remote is set, tokens
// signed by the identity provider itself are verified against its JWKS.
type ProviderA struct {
	codec  *security.Codec
	issuer string
	remote IDTokenVerifier
}

func NewProviderA(codec *security.Codec, trustedIssuer string, remote IDTokenVerifier) *ProviderA {
	return &ProviderA{codec: codec, issuer: trustedIssuer, remote: remote}
}

func (p *ProviderA) Method() domain.AuthMethod { return domain.AuthProviderA }

func (p *ProviderA) Verify(ctx context.Context, credential string) Result {
	if p.issuer == "" {
		return Fail(domain.AuthProviderA, ReasonNotConfigured, nil)
	}

	var claims oidcClaims
	localErr := p.codec.DecodeInto(credential, &claims)
	if localErr == nil {
		if claims.Issuer != p.issuer {
			return Fail(domain.AuthProviderA, ReasonNotApplicable, nil)
		}
		return p.identity(claims)
	}

	if p.remote == nil {
		return Fail(domain.AuthProviderA, ReasonInvalid, localErr)
	}
	token, err := p.remote.Verify(ctx, credential)
	if err != nil {
		return Fail(domain.AuthProviderA, ReasonInvalid, err)
	}
	claims = oidcClaims{}
	if err := token.Claims(&claims); err != nil {
		return Fail(domain.AuthProviderA, ReasonInvalid, err)
	}
	return p.identity(claims)
}

func (p *ProviderA) identity(c oidcClaims) Result {
	username := c.PreferredUsername
	if username == "" {
		username = c.Email
	}
	id, err := domain.NewIdentity(domain.Identity{
		ID:         c.Subject,
		Username:   username,
		Email:      c.Email,
		Role:       domain.RoleCustomer,
		IsVerified: c.EmailVerified,
		FirstName:  c.GivenName,
		LastName:   c.FamilyName,
		AuthMethod: domain.AuthProviderA,
	})
	if err != nil {
		return Fail(domain.AuthProviderA, ReasonInvalid, errors.Join(security.ErrInvalidToken, err))
	}
	return Success(id)
}
