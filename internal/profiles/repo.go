package profiles

import (
	"context"

	"github.com/dnofulla/marketcove-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists the role-specific profile rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateBusinessProfile inserts a business profile for the given user.
func (r *Repository) CreateBusinessProfile(ctx context.Context, profile *models.BusinessProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// CreateSellerProfile inserts a seller profile for the given user.
func (r *Repository) CreateSellerProfile(ctx context.Context, profile *models.SellerProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// FindBusinessProfileByUser loads the business profile owned by userID.
func (r *Repository) FindBusinessProfileByUser(ctx context.Context, userID uuid.UUID) (*models.BusinessProfile, error) {
	var profile models.BusinessProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindSellerProfileByUser loads the seller profile owned by userID.
func (r *Repository) FindSellerProfileByUser(ctx context.Context, userID uuid.UUID) (*models.SellerProfile, error) {
	var profile models.SellerProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
