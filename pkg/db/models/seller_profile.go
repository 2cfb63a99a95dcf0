package models

import (
	"time"

	"github.com/google/uuid"
)

// SellerProfile holds the shop identity for SELLER accounts.
type SellerProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_seller_profiles_user_id"`
	ShopName  string    `gorm:"column:shop_name;not null"`
	Bio       *string   `gorm:"column:bio"`
	Verified  bool      `gorm:"column:verified;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
