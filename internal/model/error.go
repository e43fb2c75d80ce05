package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	ProductID string `json:"productId,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeInvalidQuery          = "INVALID_QUERY"
	ErrCodeUnauthenticated       = "UNAUTHENTICATED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeEmptyOrder            = "EMPTY_ORDER"
	ErrCodeInvalidOrderSource    = "INVALID_ORDER_SOURCE"
	ErrCodeProductNotFound       = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidQuantity       = "INVALID_QUANTITY"
	ErrCodeInsufficientStock     = "INSUFFICIENT_STOCK"
	ErrCodeInvalidAddress        = "INVALID_ADDRESS"
	ErrCodeInvalidPayment        = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidStatus         = "INVALID_STATUS"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeInternalError         = "INTERNAL_ERROR"
	ErrCodeCartItemNotFound      = "CART_ITEM_NOT_FOUND"
	ErrCodeInvalidIdempotencyKey = "INVALID_IDEMPOTENCY_KEY"
	ErrCodeInvalidReview         = "INVALID_REVIEW"
	ErrCodeAlreadyReviewed       = "ALREADY_REVIEWED"
	ErrCodeWishlistItemNotFound  = "WISHLIST_ITEM_NOT_FOUND"
)

// DomainError is a business-rule failure that callers can act on.
// Two domain errors are considered equal by errors.Is when their codes match,
// so a parameterised error such as InsufficientStock("p1") still matches
// ErrInsufficientStock.
type DomainError struct {
	Code      string
	Message   string
	ProductID string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrUnauthenticated       = NewDomainError(ErrCodeUnauthenticated, "Authentication required")
	ErrForbidden             = NewDomainError(ErrCodeForbidden, "Admin role required")
	ErrEmptyOrder            = NewDomainError(ErrCodeEmptyOrder, "Order must contain at least one item")
	ErrInvalidOrderSource    = NewDomainError(ErrCodeInvalidOrderSource, "Provide either line items or fromCart, not both")
	ErrProductNotFound       = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrInvalidQuantity       = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInsufficientStock     = NewDomainError(ErrCodeInsufficientStock, "Not enough stock")
	ErrInvalidAddress        = NewDomainError(ErrCodeInvalidAddress, "Shipping address is incomplete")
	ErrInvalidPaymentMethod  = NewDomainError(ErrCodeInvalidPayment, "Payment method type is required")
	ErrInvalidStatus         = NewDomainError(ErrCodeInvalidStatus, "Status must be one of pending, confirmed, shipped, delivered, cancelled")
	ErrInvalidTransition     = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrNotFound              = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrServiceUnavailable    = NewDomainError(ErrCodeServiceUnavailable, "Service temporarily unavailable, please try again")
	ErrCartItemNotFound      = NewDomainError(ErrCodeCartItemNotFound, "Product is not in the cart")
	ErrInvalidIdempotencyKey = NewDomainError(ErrCodeInvalidIdempotencyKey, "Idempotency key must be at most 255 characters")
	ErrInvalidRating         = NewDomainError(ErrCodeInvalidReview, "Rating must be between 1 and 5")
	ErrAlreadyReviewed       = NewDomainError(ErrCodeAlreadyReviewed, "You have already reviewed this product")
	ErrReviewNotFound        = NewDomainError(ErrCodeNotFound, "Review not found")
	ErrWishlistItemNotFound  = NewDomainError(ErrCodeWishlistItemNotFound, "Product is not in the wishlist")
	ErrInvalidRange          = NewDomainError(ErrCodeInvalidQuery, "range must be one of 7d, 30d, 90d")
)

// NewProductNotFoundError names the product that could not be resolved.
func NewProductNotFoundError(productID string) *DomainError {
	return &DomainError{
		Code:      ErrCodeProductNotFound,
		Message:   fmt.Sprintf("Product %s not found", productID),
		ProductID: productID,
	}
}

// NewInsufficientStockError names the product whose stock cannot cover the request.
func NewInsufficientStockError(productID, productName string) *DomainError {
	name := productName
	if name == "" {
		name = productID
	}
	return &DomainError{
		Code:      ErrCodeInsufficientStock,
		Message:   fmt.Sprintf("Not enough stock for %s", name),
		ProductID: productID,
	}
}

// NewInvalidAddressError names the missing address field.
func NewInvalidAddressError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAddress,
		Message: fmt.Sprintf("Shipping address field %s is required", field),
	}
}

// NewTransitionError explains why an order cannot move from one status to another.
func NewTransitionError(from, to OrderStatus) *DomainError {
	if from.Terminal() {
		return &DomainError{
			Code:    ErrCodeInvalidTransition,
			Message: fmt.Sprintf("Order is %s and can no longer change status", from),
		}
	}
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("Order cannot move from %s to %s", from, to),
	}
}

// NewInvalidReviewError names the missing or malformed review field.
func NewInvalidReviewError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidReview,
		Message: fmt.Sprintf("Review field %s is required", field),
	}
}
