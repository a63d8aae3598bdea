package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/harvestlink/marketplace/internal/api/response"
	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
)

type AdminHandler struct {
	authService ports.AuthService
	log         zerolog.Logger
}

func NewAdminHandler(authService ports.AuthService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{authService: authService, log: log}
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer farmer admin"`
}

type userResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

// SetRole changes an account's role.
//
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "User id"
// @Param        body  body      setRoleRequest  true  "New role"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  response.Error
// @Failure      403   {object}  response.Error
// @Failure      404   {object}  response.Error
// @Router       /admin/users/{id}/role [patch]
func (h *AdminHandler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Fail(response.MsgInvalidBody))
	}
	if err := c.Validate(&req); err != nil {
		return fieldFailure(c, err)
	}

	id := ParseID(c.Param("id"))
	if id.IsZero() {
		return c.JSON(http.StatusBadRequest, response.FailField("id", "id is required"))
	}

	user, err := h.authService.SetRole(c.Request().Context(), id, domain.Role(req.Role))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidRole):
		return c.JSON(http.StatusBadRequest, response.FailField("role", err.Error()))
	case errors.Is(err, domain.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, response.Fail("User not found"))
	default:
		return err
	}

	actor, _ := currentIdentity(c)
	h.log.Info().
		Str("actor", actor.Username).
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("role changed")
	return c.JSON(http.StatusOK, userResponse{Success: true, User: user})
}

// ParseID keeps all-digit ids numeric so they match integer store keys.
func ParseID(raw string) domain.ID {
	if raw == "" {
		return domain.ID{}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return domain.IntID(n)
	}
	return domain.StringID(raw)
}
