package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/harvestlink/marketplace/internal/api/response"
	"github.com/harvestlink/marketplace/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Session.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[string(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(RoleKey).(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, response.Fail(response.MsgForbidden))
			}
			return next(c)
		}
	}
}
