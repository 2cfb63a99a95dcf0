package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dnofulla/marketcove-backend/pkg/config"
	pkgmodels "github.com/dnofulla/marketcove-backend/pkg/db/models"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	pkgerrors "github.com/dnofulla/marketcove-backend/pkg/errors"
	"github.com/dnofulla/marketcove-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubResetRepo struct {
	user *pkgmodels.User
}

func (s *stubResetRepo) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubResetRepo) FindByResetToken(ctx context.Context, token string) (*pkgmodels.User, error) {
	if s.user != nil && s.user.ResetToken != nil && *s.user.ResetToken == token {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubResetRepo) FindByVerificationToken(ctx context.Context, token string) (*pkgmodels.User, error) {
	if s.user != nil && s.user.VerificationToken != nil && *s.user.VerificationToken == token {
		return s.user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubResetRepo) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	s.user.ResetToken = &token
	s.user.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (s *stubResetRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	s.user.PasswordHash = passwordHash
	s.user.ResetToken = nil
	s.user.ResetTokenExpiresAt = nil
	return nil
}

func (s *stubResetRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	s.user.EmailVerified = true
	s.user.VerificationToken = nil
	return nil
}

type stubUnlockGuard struct {
	unlocked []uuid.UUID
}

func (s *stubUnlockGuard) Unlock(ctx context.Context, userID uuid.UUID) error {
	s.unlocked = append(s.unlocked, userID)
	return nil
}

type resetTestSetup struct {
	service PasswordResetService
	repo    *stubResetRepo
	guard   *stubUnlockGuard
	now     time.Time
}

func newResetTestSetup(t *testing.T) *resetTestSetup {
	t.Helper()
	verification := "verify-me"
	repo := &stubResetRepo{
		user: &pkgmodels.User{
			ID:                uuid.New(),
			Email:             "buyer@example.com",
			PasswordHash:      "old-hash",
			Role:              enums.UserRoleCustomer,
			VerificationToken: &verification,
		},
	}
	guard := &stubUnlockGuard{}
	now := time.Now().UTC()

	svc, err := NewPasswordResetService(PasswordResetServiceParams{
		UserRepo:       repo,
		Guard:          guard,
		PasswordConfig: config.PasswordConfig{},
		Now:            func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new password reset service: %v", err)
	}
	return &resetTestSetup{service: svc, repo: repo, guard: guard, now: now}
}

func TestForgotPasswordIssuesToken(t *testing.T) {
	setup := newResetTestSetup(t)

	resp, err := setup.service.ForgotPassword(context.Background(), ForgotPasswordRequest{
		Email: "Buyer@Example.com",
	})
	if err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	if resp.ResetToken == "" {
		t.Fatal("expected reset token")
	}
	if setup.repo.user.ResetToken == nil || *setup.repo.user.ResetToken != resp.ResetToken {
		t.Fatal("token not persisted")
	}
	want := setup.now.Add(ResetTokenTTL)
	if setup.repo.user.ResetTokenExpiresAt == nil || !setup.repo.user.ResetTokenExpiresAt.Equal(want) {
		t.Fatalf("unexpected expiry %v, want %v", setup.repo.user.ResetTokenExpiresAt, want)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	setup := newResetTestSetup(t)

	_, err := setup.service.ForgotPassword(context.Background(), ForgotPasswordRequest{
		Email: "ghost@example.com",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResetPasswordRotatesHashAndUnlocks(t *testing.T) {
	setup := newResetTestSetup(t)
	ctx := context.Background()

	resp, err := setup.service.ForgotPassword(ctx, ForgotPasswordRequest{Email: "buyer@example.com"})
	if err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}

	setup.repo.user.FailedLoginAttempts = LockThreshold
	setup.repo.user.AccountLocked = true

	if err := setup.service.ResetPassword(ctx, ResetPasswordRequest{
		Token:           resp.ResetToken,
		NewPassword:     "BrandNew123!",
		ConfirmPassword: "BrandNew123!",
	}); err != nil {
		t.Fatalf("reset password failed: %v", err)
	}

	ok, err := security.VerifyPassword("BrandNew123!", setup.repo.user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password should verify, ok=%v err=%v", ok, err)
	}
	if setup.repo.user.ResetToken != nil {
		t.Fatal("reset token should be consumed")
	}
	if len(setup.guard.unlocked) != 1 || setup.guard.unlocked[0] != setup.repo.user.ID {
		t.Fatalf("expected account unlock, got %v", setup.guard.unlocked)
	}
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	setup := newResetTestSetup(t)
	ctx := context.Background()

	token := "stale-token"
	expired := setup.now.Add(-time.Minute)
	setup.repo.user.ResetToken = &token
	setup.repo.user.ResetTokenExpiresAt = &expired

	err := setup.service.ResetPassword(ctx, ResetPasswordRequest{
		Token:           token,
		NewPassword:     "BrandNew123!",
		ConfirmPassword: "BrandNew123!",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
	if setup.repo.user.PasswordHash != "old-hash" {
		t.Fatal("password must not change on expired token")
	}
}

func TestResetPasswordRejectsConfirmationMismatch(t *testing.T) {
	setup := newResetTestSetup(t)

	err := setup.service.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:           "whatever",
		NewPassword:     "BrandNew123!",
		ConfirmPassword: "Other123!",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if setup.repo.user.PasswordHash != "old-hash" {
		t.Fatal("password must not change on mismatch")
	}
}

func TestResetPasswordRejectsUnknownToken(t *testing.T) {
	setup := newResetTestSetup(t)

	err := setup.service.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:           "never-issued",
		NewPassword:     "BrandNew123!",
		ConfirmPassword: "BrandNew123!",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	setup := newResetTestSetup(t)
	ctx := context.Background()

	if err := setup.service.VerifyEmail(ctx, "verify-me"); err != nil {
		t.Fatalf("verify email failed: %v", err)
	}
	if !setup.repo.user.EmailVerified || setup.repo.user.VerificationToken != nil {
		t.Fatal("expected user marked verified with token cleared")
	}

	err := setup.service.VerifyEmail(ctx, "verify-me")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected consumed token to be rejected, got %v", err)
	}

	err = setup.service.VerifyEmail(ctx, "  ")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank token, got %v", err)
	}
}
