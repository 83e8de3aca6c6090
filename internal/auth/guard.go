package auth

import (
	"context"
	"time"

	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// DefaultLoginFailureLimit is the number of same-day failures tolerated before the next one freezes
const DefaultLoginFailureLimit = 2

// LoginGuard counts wrong passwords per day and freezes the account past the limit
type LoginGuard struct {
	accounts AccountStore
	limit    int
	logger   logger.Logger
}

// NewLoginGuard creates a new login guard
func NewLoginGuard(accounts AccountStore, limit int, log logger.Logger) *LoginGuard {
	if limit <= 0 {
		limit = DefaultLoginFailureLimit
	}
	return &LoginGuard{accounts: accounts, limit: limit, logger: log}
}

// RecordFailure registers one wrong password for the account
func (g *LoginGuard) RecordFailure(ctx context.Context, account *Account, now time.Time) error {
	status, err := g.accounts.RecordLoginFailure(ctx, account.ID, g.limit, now)
	if err != nil {
		return apperrors.InternalWithCause(err, "failed to record login failure")
	}

	if status == AccountFrozen {
		g.logger.With("account_id", account.ID).Warn("Account frozen after repeated login failures")
	}
	return nil
}
