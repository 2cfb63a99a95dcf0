package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dnofulla/marketcove-backend/internal/profiles"
	pkgAuth "github.com/dnofulla/marketcove-backend/pkg/auth"
	"github.com/dnofulla/marketcove-backend/pkg/config"
	"github.com/dnofulla/marketcove-backend/pkg/db/models"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	pkgerrors "github.com/dnofulla/marketcove-backend/pkg/errors"
	"github.com/dnofulla/marketcove-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The same message is returned for unknown emails, wrong passwords, and
// locked or disabled accounts so responses never reveal whether an address
// is registered or what state it is in.
const invalidCredentialsMessage = "invalid email or password"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*SessionResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*SessionResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID, role enums.UserRole) (*profiles.Summary, error)
}

type accountGuard interface {
	RecordFailure(ctx context.Context, userID uuid.UUID) (bool, error)
	RecordSuccess(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type service struct {
	users    userRepository
	resolver profileResolver
	guard    accountGuard
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo        userRepository
	ProfileResolver profileResolver
	Guard           accountGuard
	JWTConfig       config.JWTConfig
	Now             func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.ProfileResolver == nil {
		return nil, fmt.Errorf("profile resolver is required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("account guard is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		users:    params.UserRepo,
		resolver: params.ProfileResolver,
		guard:    params.Guard,
		jwtCfg:   params.JWTConfig,
		now:      now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	// Locked and disabled accounts reject even correct passwords, and a
	// locked attempt is not counted again.
	if user.AccountLocked || !user.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		if _, guardErr := s.guard.RecordFailure(ctx, user.ID); guardErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, guardErr, "record failed login")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now()
	if err := s.guard.RecordSuccess(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record successful login")
	}
	user.FailedLoginAttempts = 0
	user.AccountLocked = false
	user.LastLoginAt = &now

	return s.mintSession(ctx, user, now)
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*SessionResponse, error) {
	claims, err := pkgAuth.ParseToken(s.jwtCfg, req.RefreshToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}
	if claims.Kind != enums.TokenKindRefresh {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !strings.EqualFold(user.Email, claims.Subject) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}
	if user.AccountLocked || !user.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	// Refresh tokens are not rotated: the exchange mints a new access
	// token and hands the presented refresh token back as-is.
	return s.buildSession(ctx, user, s.now(), req.RefreshToken)
}

func (s *service) mintSession(ctx context.Context, user *models.User, now time.Time) (*SessionResponse, error) {
	refreshToken, err := mintRefresh(s.jwtCfg, now, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint refresh token")
	}
	return s.buildSession(ctx, user, now, refreshToken)
}

func (s *service) buildSession(ctx context.Context, user *models.User, now time.Time, refreshToken string) (*SessionResponse, error) {
	profile, err := s.resolver.Resolve(ctx, user.ID, user.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve profile")
	}

	accessToken, err := mintAccess(s.jwtCfg, now, pkgAuthPayload(user, profile))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &SessionResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(s.jwtCfg.AccessTokenTTL().Seconds()),
		RefreshExpiresIn: int64(s.jwtCfg.RefreshTokenTTL().Seconds()),
		User:             sessionUser(user, profile),
	}, nil
}
