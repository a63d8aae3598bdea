package verifier

import (
	"context"
	"errors"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
	"github.com/harvestlink/marketplace/internal/core/security"
)

// Relational accepts session credentials minted by this service and confirms
// the account still exists. Profile and role come from the stored row.
type Relational struct {
	codec *security.Codec
	users ports.UserRepository
}

func NewRelational(codec *security.Codec, users ports.UserRepository) *Relational {
	return &Relational{codec: codec, users: users}
}

func (r *Relational) Method() domain.AuthMethod { return domain.AuthRelational }

func (r *Relational) Verify(ctx context.Context, credential string) Result {
	if r.users == nil {
		return Fail(domain.AuthRelational, ReasonNotConfigured, nil)
	}

	claims, err := r.codec.Decode(credential)
	if err != nil {
		return Fail(domain.AuthRelational, ReasonInvalid, err)
	}
	if claims.Issuer != r.codec.Issuer() {
		return Fail(domain.AuthRelational, ReasonNotApplicable, nil)
	}

	user, err := r.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return Fail(domain.AuthRelational, ReasonRevoked, err)
		}
		return Fail(domain.AuthRelational, ReasonUnavailable, err)
	}

	id, err := domain.IdentityFromUser(user, domain.AuthRelational)
	if err != nil {
		return Fail(domain.AuthRelational, ReasonInvalid, err)
	}
	return Success(id)
}
