package verifier

import (
	"context"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/security"
)

// Local accepts any structurally valid, unexpired, codec-signed token. Its
// criteria are a subset of every other codec-based verifier, so the Resolver
// always runs it last.
type Local struct {
	codec *security.Codec
}

func NewLocal(codec *security.Codec) *Local {
	return &Local{codec: codec}
}

func (l *Local) Method() domain.AuthMethod { return domain.AuthLocal }

func (l *Local) CatchAll() bool { return true }

func (l *Local) Verify(_ context.Context, credential string) Result {
	claims, err := l.codec.Decode(credential)
	if err != nil {
		return Fail(domain.AuthLocal, ReasonInvalid, err)
	}
	return identityFromClaims(claims, domain.AuthLocal)
}
