package users

import (
	"time"

	"github.com/dnofulla/marketcove-backend/pkg/db/models"
	"github.com/dnofulla/marketcove-backend/pkg/enums"
	"github.com/google/uuid"
)

// UserDTO is the user projection carried by session payloads. Profile
// fields are populated by the auth layer when the role has one;
// credentials and one-time tokens never leave the model.
type UserDTO struct {
	ID                uuid.UUID      `json:"id"`
	Email             string         `json:"email"`
	FirstName         string         `json:"firstName"`
	LastName          string         `json:"lastName"`
	Role              enums.UserRole `json:"role"`
	ProfileID         *uuid.UUID     `json:"profileId,omitempty"`
	ProfileName       *string        `json:"profileName,omitempty"`
	IsProfileVerified bool           `json:"isProfileVerified"`
	IsEmailVerified   bool           `json:"isEmailVerified"`
	IsAccountLocked   bool           `json:"isAccountLocked"`
	LastLogin         *time.Time     `json:"lastLogin,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email             string
	PasswordHash      string
	FirstName         string
	LastName          string
	Role              enums.UserRole
	VerificationToken *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role,
		IsEmailVerified: u.EmailVerified,
		IsAccountLocked: u.AccountLocked,
		LastLogin:       u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:             c.Email,
		PasswordHash:      c.PasswordHash,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		Role:              c.Role,
		Enabled:           true,
		VerificationToken: c.VerificationToken,
	}
}
