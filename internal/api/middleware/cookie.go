package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harvestlink/marketplace/internal/core/security"
)

// CookieName is the session cookie read by Session and written on sign-in.
const CookieName = "token"

// SessionCookie writes and expires the session cookie. Secure is set in
// production so the cookie never travels over plain HTTP.
type SessionCookie struct {
	Secure bool
}

func (s SessionCookie) Set(c echo.Context, token string) {
	c.SetCookie(s.cookie(token, int(security.SessionTTL/time.Second)))
}

func (s SessionCookie) Clear(c echo.Context) {
	ck := s.cookie("", -1)
	ck.Expires = time.Unix(0, 0)
	c.SetCookie(ck)
}

func (s SessionCookie) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
