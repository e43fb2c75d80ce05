package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopfront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, description, price, stock, category, featured, is_active, created_at, updated_at`

// likeEscaper escapes the LIKE wildcards so a search matches them literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.Category,
		&p.Featured,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// GetAll retrieves active products matching filter, ordered by name.
func (r *productRepository) GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active
		  AND ($1 = '' OR name ILIKE $1)
		  AND ($2 = '' OR category = $2)
		  AND (NOT $3 OR featured)
		ORDER BY name
		LIMIT $4 OFFSET $5
	`

	pattern := ""
	if filter.Search != "" {
		pattern = "%" + likeEscaper.Replace(filter.Search) + "%"
	}

	rows, err := r.pool.Query(ctx, query, pattern, filter.Category, filter.Featured, filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Error().Err(err).
			Str("search", filter.Search).
			Str("category", filter.Category).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single active product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND is_active
	`

	var p model.Product
	err := scanProduct(r.pool.QueryRow(ctx, query, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// LockForUpdate row-locks the given products. Locks are always taken in id
// order so that concurrent placements touching overlapping products cannot
// deadlock.
func (r *productRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, ids []string) (map[string]model.Product, error) {
	products := make(map[string]model.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan locked product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating locked product rows")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	return products, nil
}

// DecrementStock subtracts qty from the product's stock.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id string, qty int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Int("quantity", qty).Msg("failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("product_id", id).Int("quantity", qty).Msg("stock guard rejected decrement")
		return ErrStockExceeded
	}

	return nil
}

// ListLowStock returns active products whose stock is at or below threshold.
func (r *productRepository) ListLowStock(ctx context.Context, threshold int) ([]model.LowStockProduct, error) {
	query := `
		SELECT id, name, stock
		FROM products
		WHERE is_active AND stock <= $1
		ORDER BY stock, id
	`

	rows, err := r.pool.Query(ctx, query, threshold)
	if err != nil {
		r.logger.Error().Err(err).Int("threshold", threshold).Msg("failed to query low stock products")
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	defer rows.Close()

	products := []model.LowStockProduct{}
	for rows.Next() {
		var p model.LowStockProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan low stock product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating low stock products: %w", err)
	}

	return products, nil
}

// ListCategories returns every category that has an active product, by name.
func (r *productRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	query := `
		SELECT category, COUNT(*)
		FROM products
		WHERE is_active AND category <> ''
		GROUP BY category
		ORDER BY category
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
