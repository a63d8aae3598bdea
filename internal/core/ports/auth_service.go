package ports

import (
	"context"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

// SignupInput carries a validated signup request. There is no role field:
// new accounts are always customers.
type SignupInput struct {
	Username  string
	Email     string
	Password  string
	Phone     string
	FirstName string
	LastName  string
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, string, error)
	Login(ctx context.Context, identifier, password, clientIP string) (string, *domain.User, error)
	SetRole(ctx context.Context, id domain.ID, role domain.Role) (*domain.User, error)
}
