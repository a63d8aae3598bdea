package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/harvestlink/marketplace/internal/api/metrics"
	"github.com/harvestlink/marketplace/internal/api/middleware"
	"github.com/harvestlink/marketplace/internal/api/response"
	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      middleware.SessionCookie
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookie middleware.SessionCookie, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, log: log}
}

type signupRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=32,username"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,bcryptmax"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=32"`
	FirstName       string `json:"firstName,omitempty" validate:"omitempty,max=64"`
	LastName        string `json:"lastName,omitempty" validate:"omitempty,max=64"`
}

// signinRequest accepts the identifier under any of its names.
type signinRequest struct {
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Password   string `json:"password"`
}

func (r signinRequest) identifier() string {
	for _, v := range []string{r.Identifier, r.Username, r.Email, r.Phone} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    *domain.User `json:"user,omitempty"`
}

type identityResponse struct {
	Success bool            `json:"success"`
	User    domain.Identity `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Signup creates a customer account and starts a session.
//
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  response.Error
// @Failure      500   {object}  response.Error
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		metrics.SignupsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, response.Fail(response.MsgInvalidBody))
	}
	if err := c.Validate(&req); err != nil {
		metrics.SignupsTotal.WithLabelValues("invalid").Inc()
		return fieldFailure(c, err)
	}

	user, token, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		var fe *domain.FieldError
		if errors.As(err, &fe) {
			result := "invalid"
			if errors.Is(err, domain.ErrUserExists) {
				result = "conflict"
			}
			metrics.SignupsTotal.WithLabelValues(result).Inc()
			return c.JSON(http.StatusBadRequest, response.FailField(fe.Field, fe.Message))
		}
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.SignupsTotal.WithLabelValues("success").Inc()
	h.cookie.Set(c, token)
	return c.JSON(http.StatusCreated, authResponse{Success: true, Token: token, User: user})
}

// Signin authenticates by username, email or phone and returns a session token.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signinRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  response.Error
// @Failure      401   {object}  response.Error
// @Failure      429   {object}  response.Error
// @Router       /auth/signin [post]
func (h *AuthHandler) Signin(c echo.Context) error {
	var req signinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Fail(response.MsgInvalidBody))
	}
	identifier := req.identifier()
	switch {
	case identifier == "":
		return c.JSON(http.StatusBadRequest, response.FailField("identifier", "Username, email or phone is required"))
	case req.Password == "":
		return c.JSON(http.StatusBadRequest, response.FailField("password", "password is required"))
	}

	token, user, err := h.authService.Login(c.Request().Context(), identifier, req.Password, c.RealIP())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRateLimited):
		metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
		return c.JSON(http.StatusTooManyRequests, response.Fail(response.MsgRateLimited))
	case errors.Is(err, domain.ErrInvalidCredentials):
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return c.JSON(http.StatusUnauthorized, response.Fail(response.MsgBadLogin))
	default:
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.cookie.Set(c, token)
	return c.JSON(http.StatusOK, authResponse{Success: true, Token: token, User: user})
}

// Logout expires the session cookie. Bearer tokens stay valid until exp.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookie.Clear(c)
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Logged out"})
}

// CurrentUser returns the authenticated principal.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityResponse
// @Failure      401  {object}  response.Error
// @Router       /auth/user [get]
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.Fail(response.MsgAuthRequired))
	}
	return c.JSON(http.StatusOK, identityResponse{Success: true, User: identity})
}

func fieldFailure(c echo.Context, err error) error {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return c.JSON(http.StatusBadRequest, response.FailField(fe.Field, fe.Message))
	}
	return c.JSON(http.StatusBadRequest, response.Fail(err.Error()))
}
