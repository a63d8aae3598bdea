package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

type stubResolver struct {
	got      string
	identity domain.Identity
	err      error
}

func (s *stubResolver) Resolve(_ context.Context, credential string) (domain.Identity, error) {
	s.got = credential
	return s.identity, s.err
}

var alice = domain.Identity{
	ID: domain.IntID(7), Username: "alice", Role: domain.RoleFarmer, AuthMethod: domain.AuthRelational,
}

func serve(t *testing.T, res IdentityResolver, req *http.Request, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := Session(res, SessionCookie{}, zerolog.Nop())(next)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Success {
		t.Fatalf("expected success=false")
	}
	return body.Message
}

func TestSession_BearerHeader(t *testing.T) {
	res := &stubResolver{identity: alice}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})

	called := false
	rec := serve(t, res, req, func(c echo.Context) error {
		called = true
		if c.Get(RoleKey) != "farmer" {
			t.Fatalf("role not set")
		}
		id, ok := IdentityFromContext(c.Request().Context())
		if !ok || id.Username != "alice" {
			t.Fatalf("identity not in request context")
		}
		if got, _ := c.Get(IdentityKey).(domain.Identity); got.Username != "alice" {
			t.Fatalf("identity not set on echo context")
		}
		return c.NoContent(http.StatusOK)
	})

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected next called with 200, got %d", rec.Code)
	}
	if res.got != "header-token" {
		t.Fatalf("expected header to win over cookie, resolver got %q", res.got)
	}
}

func TestSession_CookieFallback(t *testing.T) {
	res := &stubResolver{identity: alice}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})

	rec := serve(t, res, req, func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	if rec.Code != http.StatusOK || res.got != "cookie-token" {
		t.Fatalf("expected cookie credential, got %d %q", rec.Code, res.got)
	}
}

func TestSession_NoCredential(t *testing.T) {
	res := &stubResolver{identity: alice}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")

	rec := serve(t, res, req, func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg := message(t, rec); msg != "Authentication required" {
		t.Fatalf("unexpected message %q", msg)
	}
	if res.got != "" {
		t.Fatalf("resolver should not be called")
	}
}

func TestSession_InvalidClearsCookie(t *testing.T) {
	res := &stubResolver{err: domain.ErrUnauthenticated}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "stale"})

	rec := serve(t, res, req, func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg := message(t, rec); msg != "Invalid or expired token" {
		t.Fatalf("unexpected message %q", msg)
	}
	set := rec.Header().Get("Set-Cookie")
	if !strings.HasPrefix(set, CookieName+"=;") || !strings.Contains(set, "Max-Age=0") {
		t.Fatalf("expected cookie cleared, got %q", set)
	}
}

func TestSessionCookie_Attributes(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	SessionCookie{Secure: true}.Set(c, "abc")

	ck := rec.Result().Cookies()[0]
	if ck.Name != CookieName || ck.Value != "abc" || ck.MaxAge != 86400 || ck.Path != "/" {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
	if !ck.HttpOnly || !ck.Secure || ck.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected HttpOnly, Secure, SameSite=Strict: %+v", ck)
	}
}
