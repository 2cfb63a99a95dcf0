package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dnofulla/marketcove-backend/pkg/db/models"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(conn)
}

func seedUser(t *testing.T, repo *Repository) *models.User {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        "Buyer@Example.com",
		PasswordHash: "hash",
		FirstName:    "Pat",
		LastName:     "Jones",
		Role:         enums.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatal("expected generated user id")
	}
	return user
}

func TestCreateNormalizesEmail(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)

	if user.Email != "buyer@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
}

func TestFindByEmailIsCaseInsensitive(t *testing.T) {
	repo := newTestRepo(t)
	created := seedUser(t, repo)

	found, err := repo.FindByEmail(context.Background(), "  BUYER@example.COM ")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected user %s, got %s", created.ID, found.ID)
	}

	if _, err := repo.FindByEmail(context.Background(), "missing@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestIncrementFailedLoginsLocksAtThreshold(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		updated, err := repo.IncrementFailedLogins(ctx, user.ID, 5)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if updated.FailedLoginAttempts != i {
			t.Fatalf("expected %d attempts, got %d", i, updated.FailedLoginAttempts)
		}
		if updated.AccountLocked {
			t.Fatalf("account should not lock before threshold, attempts=%d", i)
		}
	}

	updated, err := repo.IncrementFailedLogins(ctx, user.ID, 5)
	if err != nil {
		t.Fatalf("fifth increment: %v", err)
	}
	if updated.FailedLoginAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", updated.FailedLoginAttempts)
	}
	if !updated.AccountLocked {
		t.Fatalf("expected account to lock at threshold")
	}
}

func TestResetFailedLoginsUnlocks(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := repo.IncrementFailedLogins(ctx, user.ID, 5); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := repo.ResetFailedLogins(ctx, user.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.FailedLoginAttempts != 0 || reloaded.AccountLocked {
		t.Fatalf("expected clean state, got attempts=%d locked=%v",
			reloaded.FailedLoginAttempts, reloaded.AccountLocked)
	}
}

func TestVerificationAndResetTokens(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	token := "verify-token"
	user, err := repo.Create(ctx, CreateUserDTO{
		Email:             "seller@example.com",
		PasswordHash:      "hash",
		FirstName:         "Sam",
		LastName:          "Lee",
		Role:              enums.UserRoleSeller,
		VerificationToken: &token,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := repo.FindByVerificationToken(ctx, token)
	if err != nil {
		t.Fatalf("find by verification token: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, found.ID)
	}

	if err := repo.MarkEmailVerified(ctx, user.ID); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	reloaded, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.EmailVerified || reloaded.VerificationToken != nil {
		t.Fatalf("expected verified user without token, got verified=%v token=%v",
			reloaded.EmailVerified, reloaded.VerificationToken)
	}

	expiry := time.Now().Add(time.Hour).UTC()
	if err := repo.SetResetToken(ctx, user.ID, "reset-token", expiry); err != nil {
		t.Fatalf("set reset token: %v", err)
	}
	byReset, err := repo.FindByResetToken(ctx, "reset-token")
	if err != nil {
		t.Fatalf("find by reset token: %v", err)
	}
	if byReset.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, byReset.ID)
	}

	if err := repo.UpdatePassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	reloaded, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.PasswordHash != "new-hash" {
		t.Fatalf("expected rotated hash, got %q", reloaded.PasswordHash)
	}
	if reloaded.ResetToken != nil || reloaded.ResetTokenExpiresAt != nil {
		t.Fatalf("expected reset token cleared after password update")
	}
}

func TestFromModelOmitsSensitiveFields(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo)

	dto := FromModel(user)
	if dto == nil {
		t.Fatal("expected dto")
	}
	if dto.Email != user.Email || dto.Role != user.Role {
		t.Fatalf("dto mismatch: %+v", dto)
	}
	if FromModel(nil) != nil {
		t.Fatal("nil model should map to nil dto")
	}
}
