package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/harvestlink/marketplace/internal/api/response"
	"github.com/harvestlink/marketplace/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the envelope {"success": false, "message": "...", "field": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, response.Error) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, response.Fail(fmt.Sprintf("%v", he.Message))
	}

	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return http.StatusBadRequest, response.FailField(fe.Field, fe.Message)
	}

	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, response.Fail(response.MsgRateLimited)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.Fail(response.MsgBadLogin)
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, response.Fail(response.MsgInvalidToken)
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, response.Fail(response.MsgForbidden)
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, response.FailField("role", "Role must be one of customer, farmer, admin")
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, response.Fail("User not found")
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, response.Fail("User already exists")
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, response.Fail(response.MsgInternalError)
}
