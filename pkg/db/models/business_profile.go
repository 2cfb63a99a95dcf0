package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessProfile holds the storefront identity for BUSINESS_OWNER accounts.
type BusinessProfile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_business_profiles_user_id"`
	BusinessName string    `gorm:"column:business_name;not null"`
	Description  *string   `gorm:"column:description"`
	Website      *string   `gorm:"column:website"`
	Verified     bool      `gorm:"column:verified;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
