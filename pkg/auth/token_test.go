package auth

import (
	"testing"
	"time"

	"github.com/dnofulla/marketcove-backend/pkg/config"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:              "test-secret",
		Issuer:              "marketcove-test",
		ExpirationMinutes:   60,
		RefreshTokenMinutes: 120,
	}
}

func testPayload() AccessTokenPayload {
	return AccessTokenPayload{
		UserID:        uuid.New(),
		Email:         "Shopper@Example.com",
		Role:          enums.UserRoleCustomer,
		EmailVerified: true,
	}
}

func TestMintAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	payload := testPayload()
	now := time.Now()

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "shopper@example.com" {
		t.Errorf("expected lowercased subject, got %q", claims.Subject)
	}
	if claims.UserID != payload.UserID {
		t.Errorf("user id mismatch: %s != %s", claims.UserID, payload.UserID)
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Errorf("unexpected role %q", claims.Role)
	}
	if !claims.EmailVerified {
		t.Errorf("expected email_verified claim")
	}
	if claims.Kind != enums.TokenKindAccess {
		t.Errorf("unexpected kind %q", claims.Kind)
	}
	if claims.Issuer != cfg.Issuer {
		t.Errorf("unexpected issuer %q", claims.Issuer)
	}
	if claims.ID == "" {
		t.Errorf("expected a jti claim")
	}

	wantExpiry := now.Add(time.Hour)
	if got := claims.ExpiresAt.Time; got.Sub(wantExpiry).Abs() > 2*time.Second {
		t.Errorf("unexpected expiry %v, want about %v", got, wantExpiry)
	}
}

func TestMintAccessTokenCarriesProfileID(t *testing.T) {
	cfg := testJWTConfig()
	payload := testPayload()
	payload.Role = enums.UserRoleSeller
	profileID := uuid.New()
	payload.ProfileID = &profileID

	token, err := MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ProfileID == nil || *claims.ProfileID != profileID {
		t.Fatalf("expected profile id %s, got %v", profileID, claims.ProfileID)
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	now := time.Now()

	cfg := testJWTConfig()
	cfg.Secret = ""
	if _, err := MintAccessToken(cfg, now, testPayload()); err == nil {
		t.Errorf("expected error for missing secret")
	}

	cfg = testJWTConfig()
	cfg.Issuer = ""
	if _, err := MintAccessToken(cfg, now, testPayload()); err == nil {
		t.Errorf("expected error for missing issuer")
	}

	cfg = testJWTConfig()
	cfg.ExpirationMinutes = 0
	if _, err := MintAccessToken(cfg, now, testPayload()); err == nil {
		t.Errorf("expected error for non-positive ttl")
	}

	payload := testPayload()
	payload.Email = "   "
	if _, err := MintAccessToken(testJWTConfig(), now, payload); err == nil {
		t.Errorf("expected error for blank email")
	}

	payload = testPayload()
	payload.Role = enums.UserRole("SUPERUSER")
	if _, err := MintAccessToken(testJWTConfig(), now, payload); err == nil {
		t.Errorf("expected error for invalid role")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	past := time.Now().Add(-2 * time.Hour)

	token, err := MintAccessToken(cfg, past, testPayload())
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail parsing")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), testPayload())
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	other := cfg
	other.Secret = "different-secret"
	if _, err := ParseToken(other, token); err == nil {
		t.Fatalf("expected signature mismatch to fail parsing")
	}
}

func TestParseTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), testPayload())
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseToken(other, token); err == nil {
		t.Fatalf("expected issuer mismatch to fail parsing")
	}
}

func TestValidateFailsClosed(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), testPayload())
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if !Validate(cfg, token, "shopper@example.com") {
		t.Errorf("expected matching subject to validate")
	}
	if !Validate(cfg, token, "Shopper@Example.com") {
		t.Errorf("expected subject comparison to ignore case")
	}
	if Validate(cfg, token, "other@example.com") {
		t.Errorf("expected subject mismatch to fail")
	}
	if Validate(cfg, "not-a-token", "shopper@example.com") {
		t.Errorf("expected garbage token to fail")
	}
	if Validate(cfg, "", "shopper@example.com") {
		t.Errorf("expected empty token to fail")
	}
}

func TestRefreshTokenKindDiscrimination(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	userID := uuid.New()

	refresh, err := MintRefreshToken(cfg, now, userID, "shopper@example.com")
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}
	access, err := MintAccessToken(cfg, now, testPayload())
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if !IsRefreshKind(cfg, refresh) {
		t.Errorf("expected refresh token to report refresh kind")
	}
	if IsRefreshKind(cfg, access) {
		t.Errorf("expected access token to fail refresh kind check")
	}
	if IsRefreshKind(cfg, "not-a-token") {
		t.Errorf("expected garbage token to fail refresh kind check")
	}

	claims, err := ParseToken(cfg, refresh)
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user id mismatch: %s != %s", claims.UserID, userID)
	}
	if claims.Role != "" {
		t.Errorf("refresh token should not carry a role, got %q", claims.Role)
	}

	wantExpiry := now.Add(2 * time.Hour)
	if got := claims.ExpiresAt.Time; got.Sub(wantExpiry).Abs() > 2*time.Second {
		t.Errorf("unexpected refresh expiry %v, want about %v", got, wantExpiry)
	}
}

func TestIsWellFormed(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), testPayload())
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if !IsWellFormed(cfg, token) {
		t.Errorf("expected valid token to be well formed")
	}
	if IsWellFormed(cfg, token+"tampered") {
		t.Errorf("expected tampered token to fail")
	}
}
