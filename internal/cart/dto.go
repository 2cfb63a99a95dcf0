package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds quantity of an item to the caller's cart.
type AddItemRequest struct {
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemRequest changes a cart line's quantity. A quantity of zero or
// less removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartLine is one rendered cart row. LineTotal always derives from the
// price snapshot; CurrentItemPrice is only present when the live price
// has drifted from the snapshot.
type CartLine struct {
	ID               uuid.UUID        `json:"id"`
	ItemID           uuid.UUID        `json:"itemId"`
	ItemName         string           `json:"itemName"`
	Quantity         int              `json:"quantity"`
	PriceAtTime      decimal.Decimal  `json:"priceAtTime"`
	LineTotal        decimal.Decimal  `json:"lineTotal"`
	PriceChanged     bool             `json:"priceChanged"`
	CurrentItemPrice *decimal.Decimal `json:"currentItemPrice,omitempty"`
}

// CartResponse is the full rendered cart.
type CartResponse struct {
	ID         uuid.UUID       `json:"id"`
	Items      []CartLine      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// ItemCountResponse reports the summed quantity across all cart lines.
type ItemCountResponse struct {
	Count int64 `json:"count"`
}
