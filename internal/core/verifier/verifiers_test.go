package verifier

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/security"
)

func TestManaged_NotConfigured(t *testing.T) {
	res := NewManaged(nil).Verify(context.Background(), "anything")
	if res.OK() || res.Failure.Reason != ReasonNotConfigured {
		t.Fatalf("expected not_configured, got %+v", res)
	}
}

func TestManaged_RejectedAndUnavailable(t *testing.T) {
	rejected := NewManaged(&stubManaged{err: domain.ErrInvalidCredentials}).Verify(context.Background(), "t")
	if rejected.OK() || rejected.Failure.Reason != ReasonInvalid {
		t.Fatalf("expected invalid, got %+v", rejected)
	}

	down := NewManaged(&stubManaged{err: errors.New("dial tcp: connection refused")}).Verify(context.Background(), "t")
	if down.OK() || down.Failure.Reason != ReasonUnavailable {
		t.Fatalf("expected unavailable, got %+v", down)
	}
}

func TestManaged_MapsProfile(t *testing.T) {
	confirmed := testNow
	client := &stubManaged{profile: &domain.ExternalProfile{
		ID:               "9b2f5d1e-5c52-4a0b-9e7e-3f1f3c6f4d10",
		Email:            "maria@farm.io",
		FirstName:        "Maria",
		EmailConfirmedAt: &confirmed,
	}}

	res := NewManaged(client).Verify(context.Background(), "t")
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Failure)
	}
	id := res.Identity
	if id.AuthMethod != domain.AuthManaged || id.Role != domain.RoleCustomer || !id.IsVerified {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if id.Username != "maria@farm.io" || id.ID.IsNumeric() {
		t.Fatalf("unexpected username/id: %+v", id)
	}
}

func TestManaged_IncompleteProfile(t *testing.T) {
	res := NewManaged(&stubManaged{profile: &domain.ExternalProfile{ID: "x"}}).Verify(context.Background(), "t")
	if res.OK() || res.Failure.Reason != ReasonInvalid {
		t.Fatalf("expected invalid for profile without username/email, got %+v", res)
	}
}

func TestRelational_RoleComesFromStore(t *testing.T) {
	codec := newTestCodec(t)
	users := newStubUsers(&domain.User{ID: domain.IntID(5), Username: "alice", Email: "a@x.com", Role: domain.RoleAdmin})
	token := mustIssue(t, codec, security.Claims{Subject: domain.IntID(5), Username: "alice", Role: domain.RoleCustomer})

	res := NewRelational(codec, users).Verify(context.Background(), token)
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Failure)
	}
	if res.Identity.Role != domain.RoleAdmin || res.Identity.AuthMethod != domain.AuthRelational {
		t.Fatalf("unexpected identity: %+v", res.Identity)
	}
}

func TestRelational_RevokedAccount(t *testing.T) {
	codec := newTestCodec(t)
	token := mustIssue(t, codec, security.Claims{Subject: domain.IntID(99), Username: "gone", Role: domain.RoleCustomer})

	res := NewRelational(codec, newStubUsers()).Verify(context.Background(), token)
	if res.OK() || res.Failure.Reason != ReasonRevoked || !res.Failure.Terminal() {
		t.Fatalf("expected terminal revoked failure, got %+v", res)
	}
}

func TestRelational_ForeignIssuerNotApplicable(t *testing.T) {
	codec := newTestCodec(t)
	users := newStubUsers()
	token := mustIssue(t, codec, security.Claims{Subject: domain.IntID(1), Username: "a", Role: domain.RoleCustomer, Issuer: "partner"})

	res := NewRelational(codec, users).Verify(context.Background(), token)
	if res.OK() || res.Failure.Reason != ReasonNotApplicable {
		t.Fatalf("expected not_applicable, got %+v", res)
	}
	if users.calls != 0 {
		t.Fatalf("store should not be queried for foreign tokens")
	}
}

func TestRelational_StoreUnavailable(t *testing.T) {
	codec := newTestCodec(t)
	users := newStubUsers()
	users.err = errors.New("connection reset")
	token := mustIssue(t, codec, security.Claims{Subject: domain.IntID(1), Username: "a", Role: domain.RoleCustomer})

	res := NewRelational(codec, users).Verify(context.Background(), token)
	if res.OK() || res.Failure.Reason != ReasonUnavailable || res.Failure.Terminal() {
		t.Fatalf("expected non-terminal unavailable, got %+v", res)
	}
}

func TestRelational_Garbage(t *testing.T) {
	res := NewRelational(newTestCodec(t), newStubUsers()).Verify(context.Background(), "garbage")
	if res.OK() || res.Failure.Reason != ReasonInvalid {
		t.Fatalf("expected invalid, got %+v", res)
	}
}

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("verifier-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestProviderA_TrustedIssuer(t *testing.T) {
	codec := newTestCodec(t)
	token := signHS256(t, jwt.MapClaims{
		"iss":                "https://id.partner.example",
		"sub":                "auth0|abc123",
		"email":              "lee@example.com",
		"email_verified":     true,
		"preferred_username": "lee",
		"given_name":         "Lee",
		"family_name":        "Park",
		"role":               "admin",
		"exp":                testNow.Add(time.Hour).Unix(),
	})

	res := NewProviderA(codec, "https://id.partner.example", nil).Verify(context.Background(), token)
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Failure)
	}
	id := res.Identity
	if id.ID.String() != "auth0|abc123" || id.Username != "lee" || id.FirstName != "Lee" || id.LastName != "Park" || !id.IsVerified {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if id.Role != domain.RoleCustomer {
		t.Fatalf("provider role claim must not elevate, got %s", id.Role)
	}
}

func TestProviderA_OtherIssuer(t *testing.T) {
	codec := newTestCodec(t)
	token := mustIssue(t, codec, security.Claims{Subject: domain.IntID(1), Username: "a", Role: domain.RoleCustomer})

	res := NewProviderA(codec, "https://id.partner.example", nil).Verify(context.Background(), token)
	if res.OK() || res.Failure.Reason != ReasonNotApplicable {
		t.Fatalf("expected not_applicable, got %+v", res)
	}
}

func TestProviderA_NotConfigured(t *testing.T) {
	res := NewProviderA(newTestCodec(t), "", nil).Verify(context.Background(), "t")
	if res.OK() || res.Failure.Reason != ReasonNotConfigured {
		t.Fatalf("expected not_configured, got %+v", res)
	}
}

func TestProviderA_MissingUsername(t *testing.T) {
	codec := newTestCodec(t)
	token := signHS256(t, jwt.MapClaims{"iss": "idp", "sub": "x", "exp": testNow.Add(time.Hour).Unix()})

	res := NewProviderA(codec, "idp", nil).Verify(context.Background(), token)
	if res.OK() || res.Failure.Reason != ReasonInvalid {
		t.Fatalf("expected invalid, got %+v", res)
	}
}

func TestProviderA_RemoteOIDC(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key: %v", err)
	}
	const issuer = "https://id.partner.example"
	remote := oidc.NewVerifier(issuer, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}, &oidc.Config{
		ClientID: "market-web",
		Now:      func() time.Time { return testNow },
	})

	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":            issuer,
		"aud":            "market-web",
		"sub":            "google-oauth2|42",
		"email":          "sam@example.com",
		"email_verified": true,
		"exp":            testNow.Add(time.Hour).Unix(),
		"iat":            testNow.Unix(),
	}).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	res := NewProviderA(newTestCodec(t), issuer, remote).Verify(context.Background(), raw)
	if !res.OK() {
		t.Fatalf("expected remote verification to succeed, got %v", res.Failure)
	}
	if res.Identity.Username != "sam@example.com" || res.Identity.AuthMethod != domain.AuthProviderA {
		t.Fatalf("unexpected identity: %+v", res.Identity)
	}

	wrongAud, _ := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": issuer, "aud": "someone-else", "sub": "x", "email": "x@y.z",
		"exp": testNow.Add(time.Hour).Unix(),
	}).SignedString(key)
	if res := NewProviderA(newTestCodec(t), issuer, remote).Verify(context.Background(), wrongAud); res.OK() {
		t.Fatalf("expected audience mismatch to fail")
	}
}

func TestProviderB_Marker(t *testing.T) {
	codec := newTestCodec(t)
	v := NewProviderB(codec, "clerk")

	marked := mustIssue(t, codec, security.Claims{Subject: domain.StringID("user_2x"), Username: "kim", Role: domain.RoleAdmin, Provider: "clerk", Issuer: "clerk"})
	res := v.Verify(context.Background(), marked)
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Failure)
	}
	if res.Identity.Role != domain.RoleCustomer || res.Identity.AuthMethod != domain.AuthProviderB {
		t.Fatalf("unexpected identity: %+v", res.Identity)
	}

	unmarked := mustIssue(t, codec, security.Claims{Subject: domain.StringID("user_2x"), Username: "kim", Role: domain.RoleCustomer})
	if res := v.Verify(context.Background(), unmarked); res.OK() || res.Failure.Reason != ReasonNotApplicable {
		t.Fatalf("expected not_applicable, got %+v", res)
	}

	if res := NewProviderB(codec, "").Verify(context.Background(), marked); res.OK() || res.Failure.Reason != ReasonNotConfigured {
		t.Fatalf("expected not_configured, got %+v", res)
	}
}

func TestLocal_AcceptsAnySignedToken(t *testing.T) {
	codec := newTestCodec(t)
	token := mustIssue(t, codec, security.Claims{Subject: domain.StringID("svc-1"), Username: "importer", Role: domain.RoleAdmin, Issuer: "tools"})

	res := NewLocal(codec).Verify(context.Background(), token)
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Failure)
	}
	if res.Identity.Role != domain.RoleCustomer || res.Identity.AuthMethod != domain.AuthLocal {
		t.Fatalf("unexpected identity: %+v", res.Identity)
	}

	if res := NewLocal(codec).Verify(context.Background(), token+"x"); res.OK() {
		t.Fatalf("tampered token accepted")
	}
}
