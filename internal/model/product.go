package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an item in the catalogue.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Category    string          `json:"category" db:"category"`
	Featured    bool            `json:"featured" db:"featured"`
	IsActive    bool            `json:"isActive" db:"is_active"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductFilter narrows a catalogue listing. Zero values match everything.
type ProductFilter struct {
	// Search is a case-insensitive substring of the product name.
	Search   string
	Category string
	Featured bool
	Limit    int
	Offset   int
}

// Category is a catalogue category with the number of active products in it.
type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"productCount"`
}
