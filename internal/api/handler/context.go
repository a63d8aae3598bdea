package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/harvestlink/marketplace/internal/api/middleware"
	"github.com/harvestlink/marketplace/internal/core/domain"
)

// currentIdentity returns the principal attached by the Session middleware.
// Presence proves the middleware ran; without it the route is misconfigured.
func currentIdentity(c echo.Context) (domain.Identity, error) {
	if id, ok := c.Get(middleware.IdentityKey).(domain.Identity); ok {
		return id, nil
	}
	if id, ok := middleware.IdentityFromContext(c.Request().Context()); ok {
		return id, nil
	}
	return domain.Identity{}, domain.ErrUnauthenticated
}
