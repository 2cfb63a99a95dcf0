package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dnofulla/marketcove-backend/internal/profiles"
	"github.com/dnofulla/marketcove-backend/internal/users"
	"github.com/dnofulla/marketcove-backend/pkg/config"
	"github.com/dnofulla/marketcove-backend/pkg/db"
	dbmodels "github.com/dnofulla/marketcove-backend/pkg/db/models"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	pkgerrors "github.com/dnofulla/marketcove-backend/pkg/errors"
	"github.com/dnofulla/marketcove-backend/pkg/security"
	"gorm.io/gorm"
)

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*dbmodels.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*dbmodels.User, error)
}

type registerProfileRepository interface {
	CreateBusinessProfile(ctx context.Context, profile *dbmodels.BusinessProfile) error
	CreateSellerProfile(ctx context.Context, profile *dbmodels.SellerProfile) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
// The repo factories default to the GORM-backed implementations.
type RegisterServiceParams struct {
	TxRunner           TxRunner
	UserRepoFactory    func(tx *gorm.DB) registerUserRepository
	ProfileRepoFactory func(tx *gorm.DB) registerProfileRepository
	PasswordConfig     config.PasswordConfig
	JWTConfig          config.JWTConfig
	Now                func() time.Time
}

type registerService struct {
	tx          TxRunner
	userRepo    func(tx *gorm.DB) registerUserRepository
	profileRepo func(tx *gorm.DB) registerProfileRepository
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
	now         func() time.Time
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	userRepo := params.UserRepoFactory
	if userRepo == nil {
		userRepo = func(tx *gorm.DB) registerUserRepository { return users.NewRepository(tx) }
	}
	profileRepo := params.ProfileRepoFactory
	if profileRepo == nil {
		profileRepo = func(tx *gorm.DB) registerProfileRepository { return profiles.NewRepository(tx) }
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		passwordCfg: params.PasswordConfig,
		jwtCfg:      params.JWTConfig,
		now:         now,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if req.Password != req.ConfirmPassword {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "passwords do not match")
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if req.Role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin accounts cannot self-register")
	}
	if req.Role == enums.UserRoleBusinessOwner && strings.TrimSpace(req.BusinessName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "businessName is required for business owner accounts")
	}
	if req.Role == enums.UserRoleSeller && strings.TrimSpace(req.ShopName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shopName is required for seller accounts")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	verificationToken, err := security.NewOneTimeToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification token")
	}

	var (
		user    *dbmodels.User
		profile *profiles.Summary
	)

	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepo(tx)
		profileRepo := s.profileRepo(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:             email,
			PasswordHash:      passwordHash,
			FirstName:         req.FirstName,
			LastName:          req.LastName,
			Role:              req.Role,
			VerificationToken: &verificationToken,
		})
		if err != nil {
			// Two racing registrations can both pass the lookup; the
			// unique index decides the winner.
			if db.IsUniqueViolation(err, "idx_users_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		user = created

		switch req.Role {
		case enums.UserRoleBusinessOwner:
			bp := &dbmodels.BusinessProfile{
				UserID:       created.ID,
				BusinessName: strings.TrimSpace(req.BusinessName),
			}
			if err := profileRepo.CreateBusinessProfile(ctx, bp); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create business profile")
			}
			profile = &profiles.Summary{ID: bp.ID, Name: bp.BusinessName, Verified: bp.Verified}

		case enums.UserRoleSeller:
			sp := &dbmodels.SellerProfile{
				UserID:   created.ID,
				ShopName: strings.TrimSpace(req.ShopName),
			}
			if err := profileRepo.CreateSellerProfile(ctx, sp); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create seller profile")
			}
			profile = &profiles.Summary{ID: sp.ID, Name: sp.ShopName, Verified: sp.Verified}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.mintSession(user, profile)
}

func (s *registerService) mintSession(user *dbmodels.User, profile *profiles.Summary) (*SessionResponse, error) {
	now := s.now()

	accessToken, err := mintAccess(s.jwtCfg, now, pkgAuthPayload(user, profile))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refreshToken, err := mintRefresh(s.jwtCfg, now, user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint refresh token")
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
