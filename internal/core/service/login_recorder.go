package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harvestlink/marketplace/internal/core/domain"
	"github.com/harvestlink/marketplace/internal/core/ports"
)

// LoginRecorder stamps last_login_at for login events drained from the queue.
type LoginRecorder struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewLoginRecorder(repo ports.UserRepository, log zerolog.Logger) *LoginRecorder {
	return &LoginRecorder{repo: repo, log: log}
}

func (r *LoginRecorder) RecordLogin(ctx context.Context, ev domain.LoginEvent) error {
	if err := r.repo.TouchLastLogin(ctx, ev.UserID, ev.At); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	r.log.Debug().
		Str("user_id", ev.UserID.String()).
		Str("client_ip", ev.ClientIP).
		Msg("login recorded")
	return nil
}
