package models

import (
	"time"

	"github.com/dnofulla/marketcove-backend/pkg/enums"
	"github.com/google/uuid"
)

// User represents the canonical identity entity. Lockout bookkeeping
// lives directly on the row so failed-attempt updates stay atomic.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email               string         `gorm:"type:text;not null;uniqueIndex:idx_users_email"`
	PasswordHash        string         `gorm:"column:password_hash;not null"`
	FirstName           string         `gorm:"column:first_name;not null"`
	LastName            string         `gorm:"column:last_name;not null"`
	Role                enums.UserRole `gorm:"column:role;type:text;not null"`
	EmailVerified       bool           `gorm:"column:email_verified;not null;default:false"`
	Enabled             bool           `gorm:"column:enabled;not null;default:true"`
	VerificationToken   *string        `gorm:"column:verification_token;index:idx_users_verification_token"`
	ResetToken          *string        `gorm:"column:reset_token;index:idx_users_reset_token"`
	ResetTokenExpiresAt *time.Time     `gorm:"column:reset_token_expires_at"`
	FailedLoginAttempts int            `gorm:"column:failed_login_attempts;not null;default:0"`
	AccountLocked       bool           `gorm:"column:account_locked;not null;default:false"`
	LastLoginAt         *time.Time     `gorm:"column:last_login_at"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
