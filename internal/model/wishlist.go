package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WishlistItem is a saved product joined with its current catalogue data.
type WishlistItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"isActive"`
	AddedAt     time.Time       `json:"addedAt"`
}

// Wishlist is the buyer's saved products, most recently added first.
type Wishlist struct {
	BuyerID string         `json:"buyerId"`
	Items   []WishlistItem `json:"items"`
}

// AddWishlistItemRequest represents the payload for saving a product.
type AddWishlistItemRequest struct {
	ProductID string `json:"productId"`
}
