package ports

import (
	"context"
	"time"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

// UserRepository is the relational user store. Lookups return
// domain.ErrUserNotFound when no row matches.
type UserRepository interface {
	FindByID(ctx context.Context, id domain.ID) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateRole(ctx context.Context, id domain.ID, role domain.Role) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id domain.ID, at time.Time) error
}
