package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one line in a cart. PriceAtTime is the snapshot taken when
// the line was created; totals are derived from it, never from the live
// item price.
type CartItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CartID      uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_item,priority:1"`
	ItemID      uuid.UUID       `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_item,priority:2"`
	Quantity    int             `gorm:"column:quantity;not null"`
	PriceAtTime decimal.Decimal `gorm:"column:price_at_time;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
