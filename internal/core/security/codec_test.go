package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec("test-secret", "harvestlink", WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestNewCodec_RequiresSecret(t *testing.T) {
	if _, err := NewCodec("", "harvestlink"); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t, fixedNow)

	for _, in := range []Claims{
		{Subject: domain.IntID(7), Username: "alice", Role: domain.RoleCustomer, Email: "a@x.com", FirstName: "Alice", LastName: "Ng", IsVerified: true},
		{Subject: domain.StringID("0b4c1f9e"), Username: "farmer_joe", Role: domain.RoleFarmer, Provider: "marketplace-b", Issuer: "other"},
		{Subject: domain.IntID(1), Username: "root", Role: domain.RoleAdmin},
	} {
		token, err := c.Issue(in)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		out, err := c.Decode(token)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}

		if !out.Subject.Equal(in.Subject) {
			t.Fatalf("subject changed: %#v -> %#v", in.Subject, out.Subject)
		}
		if out.Username != in.Username || out.Role != in.Role || out.Email != in.Email ||
			out.FirstName != in.FirstName || out.LastName != in.LastName ||
			out.IsVerified != in.IsVerified || out.Provider != in.Provider {
			t.Fatalf("claims changed: %+v -> %+v", in, out)
		}

		wantIssuer := in.Issuer
		if wantIssuer == "" {
			wantIssuer = "harvestlink"
		}
		if out.Issuer != wantIssuer {
			t.Fatalf("expected issuer %q, got %q", wantIssuer, out.Issuer)
		}
		if out.IssuedAt.Unix() != fixedNow.Unix() {
			t.Fatalf("unexpected iat: %v", out.IssuedAt)
		}
		if out.ExpiresAt.Unix() != fixedNow.Add(24*time.Hour).Unix() {
			t.Fatalf("expected 24h expiry, got %v", out.ExpiresAt)
		}
	}
}

func TestCodec_ExpiredCredential(t *testing.T) {
	issuer := newTestCodec(t, fixedNow.Add(-25*time.Hour))
	token, err := issuer.Issue(Claims{Subject: domain.IntID(1), Username: "alice", Role: domain.RoleCustomer})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = newTestCodec(t, fixedNow).Decode(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_MissingRequiredClaims(t *testing.T) {
	c := newTestCodec(t, fixedNow)

	for name, in := range map[string]Claims{
		"sub":      {Username: "alice", Role: domain.RoleCustomer},
		"username": {Subject: domain.IntID(1), Role: domain.RoleCustomer},
		"role":     {Subject: domain.IntID(1), Username: "alice"},
		"bad role": {Subject: domain.IntID(1), Username: "alice", Role: "owner"},
	} {
		token, err := c.Issue(in)
		if err != nil {
			t.Fatalf("%s: issue: %v", name, err)
		}
		if _, err := c.Decode(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestCodec_RejectsForeignSignature(t *testing.T) {
	c := newTestCodec(t, fixedNow)
	other, _ := NewCodec("another-secret", "harvestlink", WithClock(func() time.Time { return fixedNow }))

	token, _ := other.Issue(Claims{Subject: domain.IntID(1), Username: "alice", Role: domain.RoleCustomer})
	if _, err := c.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	c := newTestCodec(t, fixedNow)
	claims := jwt.MapClaims{"sub": 1, "username": "alice", "role": "admin", "exp": fixedNow.Add(time.Hour).Unix()}

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg none, got %v", err)
	}

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	if _, err := c.Decode(hs512); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512, got %v", err)
	}
}

func TestCodec_RequiresExpiry(t *testing.T) {
	c := newTestCodec(t, fixedNow)
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1, "username": "alice", "role": "customer",
	}).SignedString([]byte("test-secret"))

	if _, err := c.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without exp, got %v", err)
	}
}

func TestCodec_Malformed(t *testing.T) {
	c := newTestCodec(t, fixedNow)
	for _, token := range []string{"", "abc", "a.b.c", strings.Repeat("x", 500)} {
		if _, err := c.Decode(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}
