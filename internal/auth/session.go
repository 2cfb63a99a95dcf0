package auth

import (
	"time"

	"github.com/dnofulla/marketcove-backend/internal/profiles"
	"github.com/dnofulla/marketcove-backend/internal/users"
	pkgAuth "github.com/dnofulla/marketcove-backend/pkg/auth"
	"github.com/dnofulla/marketcove-backend/pkg/config"
	dbmodels "github.com/dnofulla/marketcove-backend/pkg/db/models"
)

// sessionUser folds the role profile, when present, into the user
// projection returned with every token pair.
func sessionUser(user *dbmodels.User, profile *profiles.Summary) *users.UserDTO {
	dto := users.FromModel(user)
	if dto == nil || profile == nil {
		return dto
	}
	id := profile.ID
	name := profile.Name
	dto.ProfileID = &id
	dto.ProfileName = &name
	dto.IsProfileVerified = profile.Verified
	return dto
}

func pkgAuthPayload(user *dbmodels.User, profile *profiles.Summary) pkgAuth.AccessTokenPayload {
	payload := pkgAuth.AccessTokenPayload{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
	}
	if profile != nil {
		id := profile.ID
		payload.ProfileID = &id
	}
	return payload
}

func mintAccess(cfg config.JWTConfig, now time.Time, payload pkgAuth.AccessTokenPayload) (string, error) {
	return pkgAuth.MintAccessToken(cfg, now, payload)
}

func mintRefresh(cfg config.JWTConfig, now time.Time, user *dbmodels.User) (string, error) {
	return pkgAuth.MintRefreshToken(cfg, now, user.ID, user.Email)
}
