package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Item is a sellable listing. Price is the live price; carts snapshot
// their own copy at add time.
type Item struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SellerID      uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index:idx_items_seller_id"`
	Name          string          `gorm:"column:name;not null"`
	Description   *string         `gorm:"column:description"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	Active        bool            `gorm:"column:active;not null;default:true"`
	Tags          pq.StringArray  `gorm:"column:tags;type:text[]"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
