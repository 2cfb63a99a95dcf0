package profiles

import (
	"context"
	"errors"

	"github.com/dnofulla/marketcove-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Summary is the role-agnostic profile projection attached to sessions.
type Summary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Verified bool      `json:"verified"`
}

// Resolver maps a user to their role-specific profile, when one exists.
type Resolver struct {
	repo *Repository
}

// NewResolver constructs a resolver over the profiles repository.
func NewResolver(repo *Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the profile summary for roles that carry one. Customers
// and admins resolve to nil without touching the database; a missing row
// for a profile-bearing role also resolves to nil.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, role enums.UserRole) (*Summary, error) {
	if !role.HasProfile() {
		return nil, nil
	}

	switch role {
	case enums.UserRoleBusinessOwner:
		profile, err := r.repo.FindBusinessProfileByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &Summary{ID: profile.ID, Name: profile.BusinessName, Verified: profile.Verified}, nil

	case enums.UserRoleSeller:
		profile, err := r.repo.FindSellerProfileByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &Summary{ID: profile.ID, Name: profile.ShopName, Verified: profile.Verified}, nil
	}

	return nil, nil
}
