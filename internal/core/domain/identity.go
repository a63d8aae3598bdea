package domain

import (
	"errors"
	"time"
)

// AuthMethod records which verifier produced an Identity. Audit only.
type AuthMethod string

const (
	AuthManaged    AuthMethod = "managed"
	AuthRelational AuthMethod = "relational"
	AuthProviderA  AuthMethod = "provider-a"
	AuthProviderB  AuthMethod = "provider-b"
	AuthLocal      AuthMethod = "local"
	AuthNone       AuthMethod = "none"
)

var ErrIncompleteIdentity = errors.New("identity missing required fields")

// Identity is the authenticated principal of a request.
type Identity struct {
	ID         ID         `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email,omitempty"`
	Role       Role       `json:"role"`
	IsVerified bool       `json:"isVerified"`
	FirstName  string     `json:"firstName,omitempty"`
	LastName   string     `json:"lastName,omitempty"`
	AuthMethod AuthMethod `json:"-"`
}

// NewIdentity validates the required fields. There is no partially filled
// Identity: a missing id, username or role is an error.
func NewIdentity(id Identity) (Identity, error) {
	if id.ID.IsZero() || id.Username == "" || !id.Role.Valid() {
		return Identity{}, ErrIncompleteIdentity
	}
	if id.AuthMethod == "" {
		id.AuthMethod = AuthNone
	}
	return id, nil
}

// IdentityFromUser maps a stored account. Role comes from the row.
func IdentityFromUser(u *User, method AuthMethod) (Identity, error) {
	return NewIdentity(Identity{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		AuthMethod: method,
	})
}

// ExternalProfile is what the managed auth provider returns for a valid credential.
type ExternalProfile struct {
	ID               string
	Email            string
	Username         string
	FirstName        string
	LastName         string
	EmailConfirmedAt *time.Time
}

// LoginEvent is emitted after a successful sign-in.
type LoginEvent struct {
	UserID   ID
	Username string
	ClientIP string
	At       time.Time
}
