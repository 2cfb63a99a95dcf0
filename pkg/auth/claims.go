package auth

import (
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting an access JWT.
type AccessTokenPayload struct {
	UserID        uuid.UUID
	Email         string
	Role          enums.UserRole
	ProfileID     *uuid.UUID
	EmailVerified bool
}

// SessionClaims represents the typed JWT issued to clients. The subject is
// the account email; Kind separates access tokens from refresh tokens.
type SessionClaims struct {
	UserID        uuid.UUID       `json:"user_id"`
	Role          enums.UserRole  `json:"role,omitempty"`
	ProfileID     *uuid.UUID      `json:"profile_id,omitempty"`
	EmailVerified bool            `json:"email_verified,omitempty"`
	Kind          enums.TokenKind `json:"kind"`
	jwt.RegisteredClaims
}
