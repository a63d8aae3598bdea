package verifier

import (
	"context"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/security"
)

// ProviderB accepts codec-signed tokens carrying the configured provider marker.
type ProviderB struct {
	codec  *security.Codec
	marker string
}

func NewProviderB(codec *security.Codec, marker string) *ProviderB {
	return &ProviderB{codec: codec, marker: marker}
}

func (p *ProviderB) Method() domain.AuthMethod { return domain.AuthProviderB }

func (p *ProviderB) Verify(_ context.Context, credential string) Result {
	if p.marker == "" {
		return Fail(domain.AuthProviderB, ReasonNotConfigured, nil)
	}

	claims, err := p.codec.Decode(credential)
	if err != nil {
		return Fail(domain.AuthProviderB, ReasonInvalid, err)
	}
	if claims.Provider != p.marker {
		return Fail(domain.AuthProviderB, ReasonNotApplicable, nil)
	}
	return identityFromClaims(claims, domain.AuthProviderB)
}

func identityFromClaims(c security.Claims, method domain.AuthMethod) Result {
	id, err := domain.NewIdentity(domain.Identity{
		ID:         c.Subject,
		Username:   c.Username,
		Email:      c.Email,
		Role:       clampRole(c.Role),
		IsVerified: c.IsVerified,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		AuthMethod: method,
	})
	if err != nil {
		return Fail(method, ReasonInvalid, err)
	}
	return Success(id)
}
