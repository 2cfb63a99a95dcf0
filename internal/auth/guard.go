package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dnofulla/marketcove-backend/pkg/db/models"
	"github.com/google/uuid"
)

// LockThreshold is the number of consecutive failed logins that locks an account.
const LockThreshold = 5

type guardRepository interface {
	IncrementFailedLogins(ctx context.Context, id uuid.UUID, lockThreshold int) (*models.User, error)
	ResetFailedLogins(ctx context.Context, id uuid.UUID) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AccountGuard tracks failed login attempts and locks accounts that cross
// the threshold. The counter update is a single SQL statement, so two
// concurrent failures never lose an increment.
type AccountGuard struct {
	repo      guardRepository
	threshold int
}

// NewAccountGuard builds a guard over the users repository.
func NewAccountGuard(repo guardRepository) (*AccountGuard, error) {
	if repo == nil {
		return nil, fmt.Errorf("guard repository is required")
	}
	return &AccountGuard{repo: repo, threshold: LockThreshold}, nil
}

// RecordFailure bumps the failure counter and reports whether the account
// is now locked.
func (g *AccountGuard) RecordFailure(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := g.repo.IncrementFailedLogins(ctx, userID, g.threshold)
	if err != nil {
		return false, err
	}
	return user.AccountLocked, nil
}

// RecordSuccess clears the failure counter, unlocks the account, and
// stamps the login time.
func (g *AccountGuard) RecordSuccess(ctx context.Context, userID uuid.UUID, at time.Time) error {
	if err := g.repo.ResetFailedLogins(ctx, userID); err != nil {
		return err
	}
	return g.repo.UpdateLastLogin(ctx, userID, at)
}

// Unlock clears the lockout without touching last_login_at. Used by the
// password-reset flow, which is the documented way out of a locked account.
func (g *AccountGuard) Unlock(ctx context.Context, userID uuid.UUID) error {
	return g.repo.ResetFailedLogins(ctx, userID)
}
