package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a placed customer order. Everything except Status is
// fixed at creation time.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	BuyerID         string          `json:"buyerId" db:"buyer_id"`
	BuyerEmail      string          `json:"buyerEmail,omitempty" db:"buyer_email"`
	Status          OrderStatus     `json:"status" db:"status"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax             decimal.Decimal `json:"tax" db:"tax"`
	Shipping        decimal.Decimal `json:"shipping" db:"shipping"`
	Total           decimal.Decimal `json:"total" db:"total"`
	ShippingAddress Address         `json:"shippingAddress" db:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	IdempotencyKey  *string         `json:"-" db:"idempotency_key"`
	Lines           []OrderLine     `json:"lines"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderLine snapshots a product as it was sold.
type OrderLine struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	ProductID   string          `json:"productId" db:"product_id"`
	ProductName string          `json:"productName" db:"product_name"`
	UnitPrice   decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal" db:"line_total"`
}

// Address is the shipping address snapshot stored with an order.
type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// Validate returns an InvalidAddress error naming the first missing field.
func (a Address) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"email", a.Email},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return NewInvalidAddressError(r.field)
		}
	}
	if !strings.Contains(a.Email, "@") {
		return NewInvalidAddressError("email")
	}
	return nil
}

// PaymentMethod is the payment snapshot stored with an order. Details are
// opaque provider-specific fields (e.g. card brand, last four digits).
type PaymentMethod struct {
	Type    string            `json:"type"`
	Details map[string]string `json:"details,omitempty"`
}

// PlaceOrderRequest represents the request payload for placing an order.
type PlaceOrderRequest struct {
	LineItems       []LineItemRequest `json:"lineItems"`
	FromCart        bool              `json:"fromCart"`
	ShippingAddress Address           `json:"shippingAddress"`
	PaymentMethod   PaymentMethod     `json:"paymentMethod"`
	IdempotencyKey  string            `json:"idempotencyKey,omitempty"`
}

// LineItemRequest represents a single item in an order request.
type LineItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderResult is returned by order placement. Replayed is set when the
// idempotency key matched an order placed earlier.
type PlaceOrderResult struct {
	Order    *Order
	Replayed bool
}

// PlaceOrderResponse represents the response payload for a placed order.
type PlaceOrderResponse struct {
	OrderID uuid.UUID       `json:"orderId"`
	Status  OrderStatus     `json:"status"`
	Total   decimal.Decimal `json:"total"`
}

// UpdateStatusRequest represents the admin payload for changing an order status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status *OrderStatus
	Limit  int
	Offset int
}
