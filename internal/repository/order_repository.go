package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	orderColumns = `id, buyer_id, buyer_email, status, subtotal, tax, shipping, total,
		shipping_address, payment_method, idempotency_key, created_at, updated_at`

	idempotencyConstraint = "orders_buyer_idempotency_key"

	// idempotencyLockSpace namespaces the advisory locks taken per
	// (buyer, idempotency key) so they cannot collide with other lock users.
	idempotencyLockSpace = 0x6f726472
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.BuyerEmail,
		&o.Status,
		&o.Subtotal,
		&o.Tax,
		&o.Shipping,
		&o.Total,
		&o.ShippingAddress,
		&o.PaymentMethod,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, buyer_id, buyer_email, status, subtotal, tax, shipping, total,
			shipping_address, payment_method, idempotency_key, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.BuyerID,
		order.BuyerEmail,
		string(order.Status),
		order.Subtotal,
		order.Tax,
		order.Shipping,
		order.Total,
		order.ShippingAddress,
		order.PaymentMethod,
		order.IdempotencyKey,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, idempotencyConstraint) {
			r.logger.Info().
				Str("order_id", order.ID.String()).
				Str("buyer_id", order.BuyerID).
				Msg("idempotency key already used")
			return ErrDuplicateIdempotencyKey
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderLines inserts the order lines within the provided transaction.
func (r *orderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_lines (id, order_id, product_id, product_name, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(query,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.ProductName,
			line.UnitPrice,
			line.Quantity,
			line.LineTotal,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(lines); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", lines[i].OrderID.String()).
				Str("product_id", lines[i].ProductID).
				Msg("failed to create order line")
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(lines)).
		Msg("order lines created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its lines.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.getOne(ctx, r.pool, query, id)
}

// GetByIdempotencyKey retrieves the buyer's order placed with key.
func (r *orderRepository) GetByIdempotencyKey(ctx context.Context, buyerID, key string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id = $1 AND idempotency_key = $2`
	return r.getOne(ctx, r.pool, query, buyerID, key)
}

// LockIdempotencyKey takes a transaction-scoped advisory lock on
// (buyerID, key). A concurrent placement with the same pair blocks here until
// tx ends, and then sees the committed order.
func (r *orderRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, buyerID, key string) error {
	query := `SELECT pg_advisory_xact_lock($1, hashtext($2 || ':' || $3))`

	if _, err := tx.Exec(ctx, query, idempotencyLockSpace, buyerID, key); err != nil {
		r.logger.Error().Err(err).Str("buyer_id", buyerID).Msg("failed to lock idempotency key")
		return fmt.Errorf("failed to lock idempotency key: %w", err)
	}
	return nil
}

// GetByIdempotencyKeyTx is GetByIdempotencyKey inside tx.
func (r *orderRepository) GetByIdempotencyKeyTx(ctx context.Context, tx pgx.Tx, buyerID, key string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_id = $1 AND idempotency_key = $2`
	return r.getOne(ctx, tx, query, buyerID, key)
}

// GetForUpdate row-locks an order within tx and returns it with its lines.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, tx, query, id)
}

func (r *orderRepository) getOne(ctx context.Context, q querier, query string, args ...any) (*model.Order, error) {
	var order model.Order
	err := scanOrder(q.QueryRow(ctx, query, args...), &order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{order}
	if err := r.attachLines(ctx, q, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// ListByBuyer retrieves a buyer's orders, newest first.
func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, buyerID, limit, offset)
}

// ListAll retrieves orders across all buyers, newest first.
func (r *orderRepository) ListAll(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, status, filter.Limit, filter.Offset)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachLines(ctx, r.pool, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachLines loads the lines of every order in one round trip.
func (r *orderRepository) attachLines(ctx context.Context, q querier, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Lines = []model.OrderLine{}
	}

	query := `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, line_total
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, product_id
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(ids)).Msg("failed to query order lines")
		return fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line model.OrderLine
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.ProductName,
			&line.UnitPrice,
			&line.Quantity,
			&line.LineTotal,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		i := index[line.OrderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return fmt.Errorf("error iterating order lines: %w", err)
	}

	return nil
}

// UpdateStatus sets the order status within tx.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) (time.Time, error) {
	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	var updatedAt time.Time
	err := tx.QueryRow(ctx, query, id, string(status)).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, model.ErrNotFound
		}
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return time.Time{}, fmt.Errorf("failed to update order status: %w", err)
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("status", string(status)).
		Msg("order status updated")

	return updatedAt, nil
}

// Stats aggregates order counts and revenue per status.
func (r *orderRepository) Stats(ctx context.Context) ([]model.StatusSummary, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		GROUP BY status
		ORDER BY status
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to aggregate orders")
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	defer rows.Close()

	summaries := []model.StatusSummary{}
	for rows.Next() {
		var s model.StatusSummary
		if err := rows.Scan(&s.Status, &s.Orders, &s.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan order aggregate: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order aggregates: %w", err)
	}

	return summaries, nil
}

// Analytics summarises non-cancelled orders created at or after since. The
// topN best-selling products are ranked by units sold.
func (r *orderRepository) Analytics(ctx context.Context, since time.Time, topN int) (*model.Analytics, error) {
	a := &model.Analytics{
		Since:       since,
		DailySales:  []model.DailySales{},
		TopProducts: []model.TopProduct{},
	}

	summary := `
		SELECT COUNT(*), COALESCE(SUM(total), 0), COUNT(DISTINCT buyer_id)
		FROM orders
		WHERE created_at >= $1 AND status <> 'cancelled'
	`
	if err := r.pool.QueryRow(ctx, summary, since).Scan(&a.Orders, &a.Revenue, &a.Customers); err != nil {
		r.logger.Error().Err(err).Time("since", since).Msg("failed to summarise orders")
		return nil, fmt.Errorf("failed to summarise orders: %w", err)
	}

	daily := `
		SELECT to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day,
		       COUNT(*), SUM(total)
		FROM orders
		WHERE created_at >= $1 AND status <> 'cancelled'
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.pool.Query(ctx, daily, since)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query daily sales")
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	for rows.Next() {
		var d model.DailySales
		if err := rows.Scan(&d.Date, &d.Orders, &d.Revenue); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan daily sales: %w", err)
		}
		a.DailySales = append(a.DailySales, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily sales: %w", err)
	}

	top := `
		SELECT ol.product_id, MAX(ol.product_name), SUM(ol.quantity), SUM(ol.line_total)
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		WHERE o.created_at >= $1 AND o.status <> 'cancelled'
		GROUP BY ol.product_id
		ORDER BY SUM(ol.quantity) DESC, ol.product_id
		LIMIT $2
	`
	rows, err = r.pool.Query(ctx, top, since, topN)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query top products")
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.TopProduct
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &p.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		a.TopProducts = append(a.TopProducts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top products: %w", err)
	}

	return a, nil
}
