package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
	"github.com/harvestlink/marketplace/internal/core/security"
)

const tracerName = "github.com/harvestlink/marketplace/internal/core/verifier"

// OutcomeOK is reported to observers for accepted attempts.
const OutcomeOK = "ok"

// Observer is notified once per verification attempt. outcome is OutcomeOK or
// the failure Reason.
type Observer func(method domain.AuthMethod, outcome string, elapsed time.Duration)

var errNoVerifiers = errors.New("no verifiers configured")

// Resolver tries verifiers sequentially and returns the first success.
type Resolver struct {
	verifiers []Verifier
	log       zerolog.Logger
	observe   Observer
	tracer    trace.Tracer
}

type ResolverOption func(*Resolver)

func WithObserver(o Observer) ResolverOption {
	return func(r *Resolver) { r.observe = o }
}

// NewResolver keeps the given order except that catch-all verifiers are moved
// behind every specific one.
func NewResolver(log zerolog.Logger, verifiers []Verifier, opts ...ResolverOption) *Resolver {
	ordered := make([]Verifier, 0, len(verifiers))
	var tail []Verifier
	for _, v := range verifiers {
		if isCatchAll(v) {
			tail = append(tail, v)
			continue
		}
		ordered = append(ordered, v)
	}
	if len(tail) > 0 && !isCatchAll(verifiers[len(verifiers)-1]) {
		log.Warn().Msg("catch-all verifier was not last in the chain; moved to the end")
	}
	ordered = append(ordered, tail...)

	r := &Resolver{
		verifiers: ordered,
		log:       log,
		observe:   func(domain.AuthMethod, string, time.Duration) {},
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ChainConfig carries the optional provider settings for NewChain.
type ChainConfig struct {
	Managed        ports.ManagedAuthClient
	ProviderIssuer string
	ProviderRemote IDTokenVerifier
	ProviderMarker string
}

// NewChain returns the production order: managed, relational, provider-a,
// provider-b, local.
func NewChain(codec *security.Codec, users ports.UserRepository, cfg ChainConfig) []Verifier {
	return []Verifier{
		NewManaged(cfg.Managed),
		NewRelational(codec, users),
		NewProviderA(codec, cfg.ProviderIssuer, cfg.ProviderRemote),
		NewProviderB(codec, cfg.ProviderMarker),
		NewLocal(codec),
	}
}

// Methods lists the chain order, for startup logging.
func (r *Resolver) Methods() []domain.AuthMethod {
	out := make([]domain.AuthMethod, len(r.verifiers))
	for i, v := range r.verifiers {
		out[i] = v.Method()
	}
	return out
}

// Resolve returns the Identity vouched for by the first accepting verifier.
// On failure the error is the last *Failure and matches
// domain.ErrUnauthenticated.
func (r *Resolver) Resolve(ctx context.Context, credential string) (domain.Identity, error) {
	ctx, span := r.tracer.Start(ctx, "verifier.Resolve")
	defer span.End()

	last := &Failure{Method: domain.AuthNone, Reason: ReasonNotConfigured, Err: errNoVerifiers}
	for _, v := range r.verifiers {
		res := r.attempt(ctx, v, credential)
		if res.OK() {
			span.SetAttributes(attribute.String("auth.method", string(res.Identity.AuthMethod)))
			return res.Identity, nil
		}
		last = res.Failure
		if last.Terminal() {
			break
		}
	}

	span.SetStatus(codes.Error, string(last.Reason))
	r.log.Debug().
		Str("method", string(last.Method)).
		Str("reason", string(last.Reason)).
		Msg("credential rejected by every verifier")
	return domain.Identity{}, last
}

func (r *Resolver) attempt(ctx context.Context, v Verifier, credential string) (res Result) {
	method := v.Method()
	ctx, span := r.tracer.Start(ctx, "verifier."+string(method))
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			res = Fail(method, ReasonInternal, fmt.Errorf("panic: %v", rec))
			r.log.Error().Str("method", string(method)).Interface("panic", rec).Msg("verifier panicked")
		}

		outcome := OutcomeOK
		if !res.OK() {
			outcome = string(res.Failure.Reason)
			r.log.Debug().
				Err(res.Failure.Err).
				Str("method", string(method)).
				Str("reason", outcome).
				Msg("verification attempt failed")
		}
		span.SetAttributes(attribute.String("auth.outcome", outcome))
		span.End()
		r.observe(method, outcome, time.Since(start))
	}()

	return v.Verify(ctx, credential)
}
