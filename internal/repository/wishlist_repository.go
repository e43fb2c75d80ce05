package repository

import (
	"context"
	"fmt"

	"shopfront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// wishlistRepository implements the WishlistRepository interface using PostgreSQL.
type wishlistRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(pool *pgxpool.Pool, logger zerolog.Logger) WishlistRepository {
	return &wishlistRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "wishlist").Logger(),
	}
}

// List returns the buyer's saved products, newest first. Products that were
// deactivated since they were saved are still listed with IsActive false.
func (r *wishlistRepository) List(ctx context.Context, buyerID string) ([]model.WishlistItem, error) {
	query := `
		SELECT w.product_id, p.name, p.price, p.stock, p.is_active, w.added_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.buyer_id = $1
		ORDER BY w.added_at DESC, w.product_id
	`

	rows, err := r.pool.Query(ctx, query, buyerID)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to query wishlist")
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	items := []model.WishlistItem{}
	for rows.Next() {
		var it model.WishlistItem
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Price, &it.Stock, &it.IsActive, &it.AddedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan wishlist row")
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist: %w", err)
	}

	return items, nil
}

// Add saves productID. Saving a product twice keeps the original added_at.
func (r *wishlistRepository) Add(ctx context.Context, buyerID, productID string) (bool, error) {
	query := `
		INSERT INTO wishlist_items (buyer_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (buyer_id, product_id) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, buyerID, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Str("product_id", productID).Msg("failed to add wishlist item")
		return false, fmt.Errorf("failed to add wishlist item: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Remove deletes productID from the buyer's wishlist.
func (r *wishlistRepository) Remove(ctx context.Context, buyerID, productID string) (bool, error) {
	query := `DELETE FROM wishlist_items WHERE buyer_id = $1 AND product_id = $2`

	tag, err := r.pool.Exec(ctx, query, buyerID, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Str("product_id", productID).Msg("failed to remove wishlist item")
		return false, fmt.Errorf("failed to remove wishlist item: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
