// Package oidc builds an ID token verifier from the identity provider's
// discovery document.
package oidc

import (
	"context"
	"fmt"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

const discoveryTimeout = 10 * time.Second

type Config struct {
	Issuer   string
	ClientID string
}

// NewVerifier fetches discovery and returns a verifier that checks the
// issuer, the audience and the JWKS signature. go-oidc detaches the key set
// from ctx cancellation, so the timeout only bounds discovery.
func NewVerifier(ctx context.Context, cfg Config) (*gooidc.IDTokenVerifier, error) {
	ctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	provider, err := gooidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery %s: %w", cfg.Issuer, err)
	}
	return provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}), nil
}
