package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dnofulla/marketcove-backend/pkg/config"
	"github.com/dnofulla/marketcove-backend/pkg/db/models"
	pkgerrors "github.com/dnofulla/marketcove-backend/pkg/errors"
	"github.com/dnofulla/marketcove-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResetTokenTTL is how long a password-reset token stays usable.
const ResetTokenTTL = 24 * time.Hour

// PasswordResetService covers the forgot/reset/verify-email flows.
type PasswordResetService interface {
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	VerifyEmail(ctx context.Context, token string) error
}

type resetRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

type resetGuard interface {
	Unlock(ctx context.Context, userID uuid.UUID) error
}

type passwordResetService struct {
	users       resetRepository
	guard       resetGuard
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// PasswordResetServiceParams bundles the reset flow dependencies.
type PasswordResetServiceParams struct {
	UserRepo       resetRepository
	Guard          resetGuard
	PasswordConfig config.PasswordConfig
	Now            func() time.Time
}

// NewPasswordResetService constructs the reset service.
func NewPasswordResetService(params PasswordResetServiceParams) (PasswordResetService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("account guard is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &passwordResetService{
		users:       params.UserRepo,
		guard:       params.Guard,
		passwordCfg: params.PasswordConfig,
		now:         now,
	}, nil
}

func (s *passwordResetService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no account for that email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	token, err := security.NewOneTimeToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset token")
	}

	expiresAt := s.now().Add(ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset token")
	}

	// No mail delivery is wired up, so the token rides back in the
	// response for the caller to forward.
	return &ForgotPasswordResponse{
		ResetToken: token,
		ExpiresIn:  int64(ResetTokenTTL.Seconds()),
	}, nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}
	user, err := s.users.FindByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired reset token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup reset token")
	}
	if user.ResetTokenExpiresAt == nil || s.now().After(*user.ResetTokenExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired reset token")
	}

	passwordHash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}

	// Resetting the password is the documented path out of a lockout.
	if err := s.guard.Unlock(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unlock account")
	}
	return nil
}

func (s *passwordResetService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "verification token is required")
	}
	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid verification token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup verification token")
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark email verified")
	}
	return nil
}
