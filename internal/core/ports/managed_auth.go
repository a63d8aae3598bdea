package ports

import (
	"context"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

// ManagedAuthClient presents a raw credential to the managed identity service.
type ManagedAuthClient interface {
	VerifyCredential(ctx context.Context, token string) (*domain.ExternalProfile, error)
}
