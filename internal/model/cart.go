package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one product line in a buyer's cart.
type CartItem struct {
	BuyerID     string          `json:"-" db:"buyer_id"`
	ProductID   string          `json:"productId" db:"product_id"`
	ProductName string          `json:"productName,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Stock       int             `json:"stock"`
	Quantity    int             `json:"quantity" db:"quantity"`
	AddedAt     time.Time       `json:"addedAt" db:"added_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// Cart is the buyer's current cart with an indicative subtotal at current prices.
type Cart struct {
	BuyerID  string          `json:"buyerId"`
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// AddCartItemRequest represents the payload for adding a product to a cart.
type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest represents the payload for changing a cart line quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
