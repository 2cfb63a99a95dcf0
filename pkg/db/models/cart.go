package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the single active cart per user. The unique index on user_id
// lets concurrent creates collapse onto one row. TotalAmount and
// TotalItems are denormalized counters restamped on every mutation.
type Cart struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_carts_user_id"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	TotalItems  int             `gorm:"column:total_items;not null;default:0"`
	Items       []CartItem      `gorm:"foreignKey:CartID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
