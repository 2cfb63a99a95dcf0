package auth

import (
	"github.com/dnofulla/marketcove-backend/internal/users"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest contains the payload required for onboarding a new account.
// BusinessName and ShopName are conditionally required by the role.
type RegisterRequest struct {
	FirstName       string         `json:"firstName" validate:"required"`
	LastName        string         `json:"lastName" validate:"required"`
	Email           string         `json:"email" validate:"required,email"`
	Password        string         `json:"password" validate:"required,min=8"`
	ConfirmPassword string         `json:"confirmPassword" validate:"required"`
	Role            enums.UserRole `json:"role" validate:"required"`
	BusinessName    string         `json:"businessName,omitempty"`
	ShopName        string         `json:"shopName,omitempty"`
}

// RefreshRequest carries the refresh token being exchanged.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ForgotPasswordRequest starts the password-reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the password-reset flow.
type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// SessionResponse contains the token pair and user returned by login,
// register, and refresh.
type SessionResponse struct {
	AccessToken      string         `json:"accessToken"`
	RefreshToken     string         `json:"refreshToken"`
	TokenType        string         `json:"tokenType"`
	ExpiresIn        int64          `json:"expiresIn"`
	RefreshExpiresIn int64          `json:"refreshExpiresIn"`
	User             *users.UserDTO `json:"user"`
}

// ForgotPasswordResponse surfaces the one-time reset token. Without an
// email sender wired up, the token is returned to the caller directly.
type ForgotPasswordResponse struct {
	ResetToken string `json:"resetToken"`
	ExpiresIn  int64  `json:"expiresIn"`
}
