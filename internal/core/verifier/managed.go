package verifier

import (
	"context"
	"errors"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
)

// Managed delegates verification to the managed identity service.
type Managed struct {
	client ports.ManagedAuthClient
}

// NewManaged returns a verifier backed by client. A nil client yields a
// verifier that always reports not_configured.
func NewManaged(client ports.ManagedAuthClient) *Managed {
	return &Managed{client: client}
}

func (m *Managed) Method() domain.AuthMethod { return domain.AuthManaged }

func (m *Managed) Verify(ctx context.Context, credential string) Result {
	if m.client == nil {
		return Fail(domain.AuthManaged, ReasonNotConfigured, nil)
	}

	profile, err := m.client.VerifyCredential(ctx, credential)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return Fail(domain.AuthManaged, ReasonInvalid, err)
		}
		return Fail(domain.AuthManaged, ReasonUnavailable, err)
	}

	username := profile.Username
	if username == "" {
		username = profile.Email
	}
	id, err := domain.NewIdentity(domain.Identity{
		ID:         domain.StringID(profile.ID),
		Username:   username,
		Email:      profile.Email,
		Role:       domain.RoleCustomer,
		IsVerified: profile.EmailConfirmedAt != nil,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		AuthMethod: domain.AuthManaged,
	})
	if err != nil {
		return Fail(domain.AuthManaged, ReasonInvalid, err)
	}
	return Success(id)
}
