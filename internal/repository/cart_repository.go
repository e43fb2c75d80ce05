package repository

import (
	"context"
	"errors"
	"fmt"

	"shopfront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

const cartSelect = `
	SELECT c.buyer_id, c.product_id, p.name, p.price, p.stock, c.quantity, c.added_at, c.updated_at
	FROM cart_items c
	JOIN products p ON p.id = c.product_id
	WHERE c.buyer_id = $1
	ORDER BY c.added_at, c.product_id
`

// Get returns the buyer's cart lines joined with current product data.
func (r *cartRepository) Get(ctx context.Context, buyerID string) ([]model.CartItem, error) {
	return r.query(ctx, r.pool, cartSelect, buyerID)
}

// GetForUpdate locks the buyer's cart rows within tx. Product rows are locked
// separately by the placement flow.
func (r *cartRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, buyerID string) ([]model.CartItem, error) {
	return r.query(ctx, tx, cartSelect+` FOR UPDATE OF c`, buyerID)
}

func (r *cartRepository) query(ctx context.Context, q querier, query, buyerID string) ([]model.CartItem, error) {
	rows, err := q.Query(ctx, query, buyerID)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var item model.CartItem
		err := rows.Scan(
			&item.BuyerID,
			&item.ProductID,
			&item.ProductName,
			&item.UnitPrice,
			&item.Stock,
			&item.Quantity,
			&item.AddedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// AddItem merges qty into the buyer's line for productID. The insert and the
// merge are both guarded by the product's current stock.
func (r *cartRepository) AddItem(ctx context.Context, buyerID, productID string, qty int) (int, error) {
	query := `
		INSERT INTO cart_items (buyer_id, product_id, quantity)
		SELECT $1, p.id, $3
		FROM products p
		WHERE p.id = $2 AND p.is_active AND p.stock >= $3
		ON CONFLICT (buyer_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		WHERE cart_items.quantity + EXCLUDED.quantity <= (
			SELECT stock FROM products WHERE id = EXCLUDED.product_id
		)
		RETURNING quantity
	`

	var quantity int
	err := r.pool.QueryRow(ctx, query, buyerID, productID, qty).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Str("buyer_id", buyerID).
				Str("product_id", productID).
				Int("quantity", qty).
				Msg("cart add rejected by stock guard")
			return 0, ErrStockExceeded
		}
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Str("product_id", productID).Msg("failed to add cart item")
		return 0, fmt.Errorf("failed to add cart item: %w", err)
	}

	return quantity, nil
}

// SetQuantity replaces the quantity of an existing line.
func (r *cartRepository) SetQuantity(ctx context.Context, buyerID, productID string, qty int) error {
	query := `
		UPDATE cart_items
		SET quantity = $3, updated_at = NOW()
		WHERE buyer_id = $1 AND product_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, buyerID, productID, qty)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Str("product_id", productID).Msg("failed to update cart item")
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartItemNotFound
	}

	return nil
}

// RemoveItem deletes a line from the cart.
func (r *cartRepository) RemoveItem(ctx context.Context, buyerID, productID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE buyer_id = $1 AND product_id = $2`, buyerID, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Str("product_id", productID).Msg("failed to remove cart item")
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartItemNotFound
	}

	return nil
}

// Clear empties the buyer's cart within tx.
func (r *cartRepository) Clear(ctx context.Context, tx pgx.Tx, buyerID string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE buyer_id = $1`, buyerID)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	r.logger.Debug().
		Str("buyer_id", buyerID).
		Int64("removed", tag.RowsAffected()).
		Msg("cart cleared")

	return nil
}
