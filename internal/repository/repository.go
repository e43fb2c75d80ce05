package repository

import (
	"context"
	"errors"
	"time"

	"shopfront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrDuplicateIdempotencyKey is returned when an order with the same
	// (buyer, idempotency key) pair was committed first.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrStockExceeded is returned when a guarded stock write matched no row.
	ErrStockExceeded = errors.New("requested quantity exceeds available stock")

	// ErrDuplicateReview is returned when the buyer already reviewed the product.
	ErrDuplicateReview = errors.New("duplicate review")
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves active products matching filter, ordered by name.
	GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single active product by its ID. It returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// LockForUpdate row-locks the given products in id order and returns the
	// rows that exist, active or not, keyed by id.
	LockForUpdate(ctx context.Context, tx pgx.Tx, ids []string) (map[string]model.Product, error)

	// DecrementStock subtracts qty from the product's stock. It returns
	// ErrStockExceeded when the stock cannot cover qty.
	DecrementStock(ctx context.Context, tx pgx.Tx, id string, qty int) error

	// ListLowStock returns active products whose stock is at or below threshold.
	ListLowStock(ctx context.Context, threshold int) ([]model.LowStockProduct, error)

	// ListCategories returns every category that has an active product.
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderLines inserts the order lines within the provided transaction.
	CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByID retrieves an order with its lines. It returns nil, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByIdempotencyKey retrieves the buyer's order placed with key, or nil, nil.
	GetByIdempotencyKey(ctx context.Context, buyerID, key string) (*model.Order, error)

	// LockIdempotencyKey blocks until no other transaction holds (buyerID, key)
	// and holds it until tx ends.
	LockIdempotencyKey(ctx context.Context, tx pgx.Tx, buyerID, key string) error

	// GetByIdempotencyKeyTx is GetByIdempotencyKey inside tx.
	GetByIdempotencyKeyTx(ctx context.Context, tx pgx.Tx, buyerID, key string) (*model.Order, error)

	// ListByBuyer retrieves a buyer's orders, newest first.
	ListByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]model.Order, error)

	// ListAll retrieves orders across all buyers, newest first.
	ListAll(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)

	// GetForUpdate row-locks an order and returns it with its lines, or nil, nil.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateStatus sets the order status and returns the new update time.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) (time.Time, error)

	// Stats aggregates order counts and revenue per status.
	Stats(ctx context.Context) ([]model.StatusSummary, error)

	// Analytics summarises non-cancelled orders created at or after since.
	Analytics(ctx context.Context, since time.Time, topN int) (*model.Analytics, error)
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// Get returns the buyer's cart lines joined with current product data.
	Get(ctx context.Context, buyerID string) ([]model.CartItem, error)

	// GetForUpdate is Get inside tx, locking the buyer's cart rows.
	GetForUpdate(ctx context.Context, tx pgx.Tx, buyerID string) ([]model.CartItem, error)

	// AddItem merges qty into the buyer's line for productID and returns the
	// resulting quantity. It returns ErrStockExceeded when the merged quantity
	// would exceed current stock.
	AddItem(ctx context.Context, buyerID, productID string, qty int) (int, error)

	// SetQuantity replaces the quantity of an existing line.
	SetQuantity(ctx context.Context, buyerID, productID string, qty int) error

	// RemoveItem deletes a line from the cart.
	RemoveItem(ctx context.Context, buyerID, productID string) error

	// Clear empties the buyer's cart within tx.
	Clear(ctx context.Context, tx pgx.Tx, buyerID string) error
}

// ReviewRepository defines the interface for product review data access.
type ReviewRepository interface {
	// ListByProduct returns a product's reviews, most helpful first.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]model.Review, error)

	// Stats aggregates every review of a product.
	Stats(ctx context.Context, productID string) (*model.ReviewStats, error)

	// Create inserts review, deriving VerifiedPurchase from the buyer's
	// delivered orders. It returns ErrDuplicateReview when the buyer already
	// reviewed the product.
	Create(ctx context.Context, review *model.Review) error

	// MarkHelpful increments a review's helpful count and returns the review,
	// or nil, nil when absent.
	MarkHelpful(ctx context.Context, id uuid.UUID) (*model.Review, error)
}

// WishlistRepository defines the interface for wishlist data access.
type WishlistRepository interface {
	// List returns the buyer's saved products joined with catalogue data, newest first.
	List(ctx context.Context, buyerID string) ([]model.WishlistItem, error)

	// Add saves productID and reports whether it was newly added.
	Add(ctx context.Context, buyerID, productID string) (bool, error)

	// Remove deletes productID and reports whether it was saved.
	Remove(ctx context.Context, buyerID, productID string) (bool, error)
}
