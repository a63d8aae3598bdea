package ports

import (
	"context"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

// LoginRecorder persists the side effects of a successful sign-in.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, event domain.LoginEvent) error
}

// LoginEventQueue accepts events for asynchronous recording.
type LoginEventQueue interface {
	Enqueue(event domain.LoginEvent) bool
}
