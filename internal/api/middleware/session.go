package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/harvestlink/marketplace/internal/api/metrics"
	"github.com/harvestlink/marketplace/internal/api/response"
	"github.com/harvestlink/marketplace/internal/core/domain"
)

// Keys under which Session stores the principal on the echo context.
const (
	IdentityKey = "identity"
	RoleKey     = "role"
)

// IdentityResolver is satisfied by *verifier.Resolver.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (domain.Identity, error)
}

type identityCtxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the identity attached by Session, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(domain.Identity)
	return id, ok
}

// Session resolves the request credential and attaches the identity.
// The Authorization header wins over the cookie.
func Session(resolver IdentityResolver, cookie SessionCookie, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential := extractCredential(c.Request())
			if credential == "" {
				metrics.SessionRejectionsTotal.WithLabelValues("missing").Inc()
				return c.JSON(http.StatusUnauthorized, response.Fail(response.MsgAuthRequired))
			}

			identity, err := resolver.Resolve(c.Request().Context(), credential)
			if err != nil {
				metrics.SessionRejectionsTotal.WithLabelValues("invalid").Inc()
				log.Debug().Err(err).Str("path", c.Path()).Msg("credential rejected")
				cookie.Clear(c)
				return c.JSON(http.StatusUnauthorized, response.Fail(response.MsgInvalidToken))
			}

			c.Set(IdentityKey, identity)
			c.Set(RoleKey, string(identity.Role))
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), identity)))

			return next(c)
		}
	}
}

func extractCredential(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if ck, err := r.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}
