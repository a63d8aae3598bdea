// Package verifier resolves an opaque bearer credential to an Identity by
// trying a fixed, ordered chain of trust sources.
package verifier

import (
	"context"
	"fmt"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

// Reason classifies why a verifier did not accept a credential.
type Reason string

const (
	ReasonNotConfigured Reason = "not_configured"
	ReasonNotApplicable Reason = "not_applicable"
	ReasonInvalid       Reason = "invalid"
	ReasonUnavailable   Reason = "unavailable"
	ReasonRevoked       Reason = "revoked"
	ReasonInternal      Reason = "internal"
)

// Failure is the error half of a Result. It matches domain.ErrUnauthenticated
// under errors.Is.
type Failure struct {
	Method domain.AuthMethod
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s verifier: %s", f.Method, f.Reason)
	}
	return fmt.Sprintf("%s verifier: %s: %v", f.Method, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) Is(target error) bool { return target == domain.ErrUnauthenticated }

// Terminal reports whether the chain must stop without consulting later
// verifiers. A revoked account must not be rescued by a catch-all.
func (f *Failure) Terminal() bool { return f.Reason == ReasonRevoked }

// Result is either an Identity or a Failure, never both.
type Result struct {
	Identity domain.Identity
	Failure  *Failure
}

func (r Result) OK() bool { return r.Failure == nil }

func Success(id domain.Identity) Result { return Result{Identity: id} }

func Fail(method domain.AuthMethod, reason Reason, err error) Result {
	return Result{Failure: &Failure{Method: method, Reason: reason, Err: err}}
}

// Verifier checks one credential against one trust source. Implementations
// report every problem through the Result and never panic on bad input.
type Verifier interface {
	Method() domain.AuthMethod
	Verify(ctx context.Context, credential string) Result
}

// catchAll marks verifiers whose acceptance criteria subsume the others.
type catchAll interface {
	CatchAll() bool
}

func isCatchAll(v Verifier) bool {
	ca, ok := v.(catchAll)
	return ok && ca.CatchAll()
}

// clampRole keeps token-asserted roles from granting anything above customer.
// Only the relational store is authoritative for elevated roles.
func clampRole(domain.Role) domain.Role { return domain.RoleCustomer }
