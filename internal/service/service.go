package service

import (
	"context"
	"errors"

	"shopfront/internal/auth"
	"shopfront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("shopfront/internal/service")

// ProductService defines operations for the product catalogue.
type ProductService interface {
	// GetAll retrieves active products matching filter with pagination.
	GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single active product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Categories lists categories with at least one active product.
	Categories(ctx context.Context) ([]model.Category, error)
}

// CartService defines operations on the authenticated buyer's cart.
type CartService interface {
	Get(ctx context.Context, principal auth.Principal) (*model.Cart, error)
	AddItem(ctx context.Context, principal auth.Principal, req *model.AddCartItemRequest) (*model.Cart, error)
	UpdateQuantity(ctx context.Context, principal auth.Principal, productID string, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, principal auth.Principal, productID string) (*model.Cart, error)
	Clear(ctx context.Context, principal auth.Principal) error
}

// OrderService defines order placement and lifecycle operations.
type OrderService interface {
	// PlaceOrder converts line items or the buyer's cart into a committed order,
	// reserving stock atomically.
	PlaceOrder(ctx context.Context, principal auth.Principal, req *model.PlaceOrderRequest) (*model.PlaceOrderResult, error)

	// GetOrder returns an order visible to principal.
	GetOrder(ctx context.Context, principal auth.Principal, id uuid.UUID) (*model.Order, error)

	// ListOrders returns the principal's own orders, newest first.
	ListOrders(ctx context.Context, principal auth.Principal, limit, offset int) ([]model.Order, error)

	// UpdateOrderStatus changes an order's status. Admin only.
	UpdateOrderStatus(ctx context.Context, principal auth.Principal, id uuid.UUID, status string) (*model.Order, error)
}

// AdminService defines back-office operations. Every method requires the admin role.
type AdminService interface {
	ListAllOrders(ctx context.Context, principal auth.Principal, status string, limit, offset int) ([]model.Order, error)
	Stats(ctx context.Context, principal auth.Principal) (*model.DashboardStats, error)

	// Analytics summarises sales over a trailing window of 7d, 30d or 90d.
	// An empty window means 30d.
	Analytics(ctx context.Context, principal auth.Principal, window string) (*model.Analytics, error)
}

// ReviewService defines product review operations. Listing is public;
// writing requires an authenticated buyer.
type ReviewService interface {
	List(ctx context.Context, productID string, limit, offset int) (*model.ProductReviews, error)
	Create(ctx context.Context, principal auth.Principal, productID string, req *model.CreateReviewRequest) (*model.Review, error)
	MarkHelpful(ctx context.Context, principal auth.Principal, id uuid.UUID) (*model.Review, error)
}

// WishlistService defines operations on the authenticated buyer's wishlist.
type WishlistService interface {
	Get(ctx context.Context, principal auth.Principal) (*model.Wishlist, error)
	Add(ctx context.Context, principal auth.Principal, req *model.AddWishlistItemRequest) (*model.Wishlist, error)
	Remove(ctx context.Context, principal auth.Principal, productID string) (*model.Wishlist, error)
}

// TxBeginner starts database transactions.
type TxBeginner interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// normalizePage applies the listing defaults shared by every paginated read.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func requireBuyer(principal auth.Principal) error {
	if principal.BuyerID == "" {
		return model.ErrUnauthenticated
	}
	return nil
}

func requireAdmin(principal auth.Principal) error {
	if err := requireBuyer(principal); err != nil {
		return err
	}
	if !principal.IsAdmin() {
		return model.ErrForbidden
	}
	return nil
}

// errorCode returns the domain code carried by err, or INTERNAL_ERROR.
func errorCode(err error) string {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return model.ErrCodeInternalError
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorCode(err))
	}
	span.End()
}

// rollback releases tx after a failed unit of work. It runs on a context that
// survives the caller's deadline so a timed-out transaction is still released.
func rollback(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(context.WithoutCancel(ctx))
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
