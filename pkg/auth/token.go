package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dnofulla/marketcove-backend/pkg/config"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a signed access JWT for the provided payload using
// the configured TTL. Claims carry the role, optional profile id, and the
// email-verified flag so downstream authorization avoids per-request lookups.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if cfg.AccessTokenTTL() <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	subject := strings.ToLower(strings.TrimSpace(payload.Email))
	if subject == "" {
		return "", fmt.Errorf("subject email is required")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", payload.Role)
	}

	claims := SessionClaims{
		UserID:        payload.UserID,
		Role:          payload.Role,
		ProfileID:     payload.ProfileID,
		EmailVerified: payload.EmailVerified,
		Kind:          enums.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenTTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// MintRefreshToken issues a long-lived refresh JWT. It carries only the
// subject and kind claim so a stolen refresh token exposes no role data.
func MintRefreshToken(cfg config.JWTConfig, now time.Time, userID uuid.UUID, email string) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if cfg.RefreshTokenTTL() <= 0 {
		return "", fmt.Errorf("refresh token ttl must be positive")
	}
	subject := strings.ToLower(strings.TrimSpace(email))
	if subject == "" {
		return "", fmt.Errorf("subject email is required")
	}

	claims := SessionClaims{
		UserID: userID,
		Kind:   enums.TokenKindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.RefreshTokenTTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseToken validates signature, issuer, and expiry and returns typed claims.
func ParseToken(cfg config.JWTConfig, tokenString string) (*SessionClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// Validate reports whether the token is authentic, unexpired, and bound to
// the expected subject. It fails closed: any parse, signature, expiry, or
// subject mismatch yields false rather than an error.
func Validate(cfg config.JWTConfig, tokenString, expectedSubject string) bool {
	claims, err := ParseToken(cfg, tokenString)
	if err != nil {
		return false
	}
	return strings.EqualFold(claims.Subject, strings.TrimSpace(expectedSubject))
}

// IsWellFormed reports whether the token parses and verifies without
// comparing subjects. Used to gate refresh-token exchange.
func IsWellFormed(cfg config.JWTConfig, tokenString string) bool {
	_, err := ParseToken(cfg, tokenString)
	return err == nil
}

// IsRefreshKind reports whether the token's kind claim marks it as a
// refresh token. Access tokens always return false.
func IsRefreshKind(cfg config.JWTConfig, tokenString string) bool {
	claims, err := ParseToken(cfg, tokenString)
	if err != nil {
		return false
	}
	return claims.Kind == enums.TokenKindRefresh
}
