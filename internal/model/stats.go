package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusSummary aggregates orders sharing a status.
type StatusSummary struct {
	Status  OrderStatus     `json:"status"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// LowStockProduct is a catalogue entry at or below the restock threshold.
type LowStockProduct struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

// DashboardStats is the admin dashboard summary.
type DashboardStats struct {
	ByStatus     []StatusSummary   `json:"byStatus"`
	TotalOrders  int               `json:"totalOrders"`
	TotalRevenue decimal.Decimal   `json:"totalRevenue"`
	LowStock     []LowStockProduct `json:"lowStock"`
}

// DailySales is one day of non-cancelled order volume.
type DailySales struct {
	Date    string          `json:"date"` // YYYY-MM-DD, UTC
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// TopProduct ranks a product by units sold.
type TopProduct struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// Analytics summarises sales over a trailing window. Cancelled orders are excluded.
type Analytics struct {
	Range             string          `json:"range"`
	Since             time.Time       `json:"since"`
	Revenue           decimal.Decimal `json:"revenue"`
	Orders            int             `json:"orders"`
	Customers         int             `json:"customers"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	DailySales        []DailySales    `json:"dailySales"`
	TopProducts       []TopProduct    `json:"topProducts"`
}

// AnalyticsRanges maps the accepted range values to their window length in days.
var AnalyticsRanges = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
}
