package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shopfront/internal/auth"
	"shopfront/internal/cache"
	"shopfront/internal/metrics"
	"shopfront/internal/model"
	"shopfront/internal/notify"
	"shopfront/internal/pricing"
	"shopfront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxIdempotencyKeyLength = 255

	sourceItems = "items"
	sourceCart  = "cart"
)

// OrderConfig tunes order placement and status updates.
type OrderConfig struct {
	// PlacementTimeout bounds the whole transactional unit of work.
	PlacementTimeout time.Duration

	// StrictTransitions enforces the lifecycle graph on status updates.
	StrictTransitions bool
}

// orderService implements OrderService.
type orderService struct {
	cfg         OrderConfig
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	catalog     cache.ProductCache
	notifier    notify.Notifier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	cfg OrderConfig,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	catalog cache.ProductCache,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) OrderService {
	if cfg.PlacementTimeout <= 0 {
		cfg.PlacementTimeout = 5 * time.Second
	}
	if catalog == nil {
		catalog = cache.NopCache{}
	}
	return &orderService{
		cfg:         cfg,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cartRepo:    cartRepo,
		catalog:     catalog,
		notifier:    notifier,
		metrics:     m,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// PlaceOrder validates the request, replays an earlier order placed with the
// same idempotency key, and otherwise runs the placement transaction.
func (s *orderService) PlaceOrder(ctx context.Context, principal auth.Principal, req *model.PlaceOrderRequest) (result *model.PlaceOrderResult, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.PlaceOrder")
	defer func() {
		if err != nil {
			s.metrics.PlacementFailed(errorCode(err))
		}
		endSpan(span, err)
	}()

	start := time.Now()

	if err := requireBuyer(principal); err != nil {
		return nil, err
	}

	items, err := s.validatePlaceOrder(req)
	if err != nil {
		return nil, err
	}

	source := sourceItems
	if req.FromCart {
		source = sourceCart
	}

	span.SetAttributes(
		attribute.String("buyer.id", principal.BuyerID),
		attribute.String("order.source", source),
		attribute.Int("order.items", len(items)),
	)

	var key *string
	if k := strings.TrimSpace(req.IdempotencyKey); k != "" {
		key = &k

		existing, err := s.orderRepo.GetByIdempotencyKey(ctx, principal.BuyerID, k)
		if err != nil {
			return nil, repository.Classify(fmt.Errorf("failed to look up idempotency key: %w", err))
		}
		if existing != nil {
			s.logger.Info().
				Str("order_id", existing.ID.String()).
				Str("buyer_id", principal.BuyerID).
				Msg("replaying order for idempotency key")
			s.metrics.OrderPlaced(source, true, 0)
			span.SetAttributes(attribute.Bool("order.replayed", true))
			return &model.PlaceOrderResult{Order: existing, Replayed: true}, nil
		}
	}

	order, replayed, err := s.place(ctx, principal, req, items, key)
	if err == nil && replayed {
		s.logger.Info().
			Str("order_id", order.ID.String()).
			Str("buyer_id", principal.BuyerID).
			Msg("replaying order committed by concurrent request")
		s.metrics.OrderPlaced(source, true, 0)
		span.SetAttributes(attribute.Bool("order.replayed", true))
		return &model.PlaceOrderResult{Order: order, Replayed: true}, nil
	}
	if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
		// A concurrent request with the same key committed first.
		winner, lookupErr := s.orderRepo.GetByIdempotencyKey(ctx, principal.BuyerID, *key)
		if lookupErr != nil {
			return nil, repository.Classify(fmt.Errorf("failed to look up idempotency key: %w", lookupErr))
		}
		if winner == nil {
			return nil, fmt.Errorf("order for idempotency key %q vanished", *key)
		}
		s.metrics.OrderPlaced(source, true, 0)
		span.SetAttributes(attribute.Bool("order.replayed", true))
		return &model.PlaceOrderResult{Order: winner, Replayed: true}, nil
	}
	if err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			s.logger.Info().
				Str("buyer_id", principal.BuyerID).
				Str("code", domainErr.Code).
				Str("product_id", domainErr.ProductID).
				Msg("order rejected")
		} else {
			s.logger.Error().Err(err).Str("buyer_id", principal.BuyerID).Msg("failed to place order")
		}
		return nil, repository.Classify(err)
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))

	productIDs := make([]string, len(order.Lines))
	for i, line := range order.Lines {
		productIDs[i] = line.ProductID
	}
	if err := s.catalog.Invalidate(ctx, productIDs...); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to invalidate catalogue cache")
	}

	s.notifier.Notify(ctx, notify.KindOrderConfirmation, order)
	s.metrics.OrderPlaced(source, false, time.Since(start))

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("buyer_id", order.BuyerID).
		Int("line_count", len(order.Lines)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order placed successfully")

	return &model.PlaceOrderResult{Order: order}, nil
}

// place runs the atomic unit: lock, check, write, decrement, clear, commit.
// When key is set, requests sharing it are serialised on an advisory lock and
// replayed reports that an order committed by an earlier holder was returned.
func (s *orderService) place(
	ctx context.Context,
	principal auth.Principal,
	req *model.PlaceOrderRequest,
	items []model.LineItemRequest,
	key *string,
) (order *model.Order, replayed bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PlacementTimeout)
	defer cancel()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to place order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := rollback(ctx, tx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if key != nil {
		if err = s.orderRepo.LockIdempotencyKey(ctx, tx, principal.BuyerID, *key); err != nil {
			return nil, false, fmt.Errorf("failed to lock idempotency key: %w", err)
		}
		var existing *model.Order
		existing, err = s.orderRepo.GetByIdempotencyKeyTx(ctx, tx, principal.BuyerID, *key)
		if err != nil {
			return nil, false, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
		if existing != nil {
			if rbErr := rollback(ctx, tx); rbErr != nil {
				s.logger.Warn().Err(rbErr).Msg("failed to release idempotency lock")
			}
			return existing, true, nil
		}
	}

	if req.FromCart {
		cartItems, err := s.cartRepo.GetForUpdate(ctx, tx, principal.BuyerID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read cart: %w", err)
		}
		if len(cartItems) == 0 {
			return nil, false, model.ErrEmptyOrder
		}
		items = make([]model.LineItemRequest, len(cartItems))
		for i, ci := range cartItems {
			items[i] = model.LineItemRequest{ProductID: ci.ProductID, Quantity: ci.Quantity}
		}
	}

	productIDs := make([]string, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}
	sort.Strings(productIDs)

	products, err := s.productRepo.LockForUpdate(ctx, tx, productIDs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock products: %w", err)
	}

	now := time.Now().UTC()
	order = &model.Order{
		ID:              uuid.New(),
		BuyerID:         principal.BuyerID,
		BuyerEmail:      principal.Email,
		Status:          model.StatusPending,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		IdempotencyKey:  key,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	lines := make([]model.OrderLine, 0, len(items))
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive {
			return nil, false, model.NewProductNotFoundError(item.ProductID)
		}
		if item.Quantity > p.Stock {
			return nil, false, model.NewInsufficientStockError(p.ID, p.Name)
		}
		lines = append(lines, model.OrderLine{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    item.Quantity,
			LineTotal:   pricing.LineTotal(p.Price, item.Quantity),
		})
	}

	pricing.Compute(lines).Apply(order)

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, false, err
	}

	if err = s.orderRepo.CreateOrderLines(ctx, tx, lines); err != nil {
		return nil, false, fmt.Errorf("failed to create order lines: %w", err)
	}

	for _, line := range lines {
		err = s.productRepo.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
		if errors.Is(err, repository.ErrStockExceeded) {
			return nil, false, model.NewInsufficientStockError(line.ProductID, line.ProductName)
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	if req.FromCart {
		if err = s.cartRepo.Clear(ctx, tx, principal.BuyerID); err != nil {
			return nil, false, fmt.Errorf("failed to clear cart: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit order: %w", err)
	}

	order.Lines = lines
	return order, false, nil
}

// validatePlaceOrder checks the request shape and returns the explicit line
// items with duplicate products merged. It returns nil items for cart orders.
func (s *orderService) validatePlaceOrder(req *model.PlaceOrderRequest) ([]model.LineItemRequest, error) {
	if req == nil {
		return nil, model.ErrEmptyOrder
	}

	if req.FromCart && len(req.LineItems) > 0 {
		return nil, model.ErrInvalidOrderSource
	}
	if !req.FromCart && len(req.LineItems) == 0 {
		return nil, model.ErrEmptyOrder
	}

	var items []model.LineItemRequest
	index := make(map[string]int, len(req.LineItems))
	for i, item := range req.LineItems {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, model.NewProductNotFoundError(item.ProductID)
		}
		if item.Quantity < 1 {
			s.logger.Debug().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return nil, model.ErrInvalidQuantity
		}
		if at, ok := index[item.ProductID]; ok {
			items[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(items)
		items = append(items, item)
	}

	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.PaymentMethod.Type) == "" {
		return nil, model.ErrInvalidPaymentMethod
	}

	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		return nil, model.ErrInvalidIdempotencyKey
	}

	return items, nil
}

// GetOrder returns the order when principal owns it or is an admin. Orders
// belonging to someone else are reported as not found.
func (s *orderService) GetOrder(ctx context.Context, principal auth.Principal, id uuid.UUID) (_ *model.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.GetOrder")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("order.id", id.String()))

	if err := requireBuyer(principal); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, repository.Classify(fmt.Errorf("failed to get order: %w", err))
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrNotFound
	}

	if order.BuyerID != principal.BuyerID && !principal.IsAdmin() {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("buyer_id", principal.BuyerID).
			Msg("order requested by non-owner")
		return nil, model.ErrNotFound
	}

	return order, nil
}

// ListOrders returns the principal's own orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, principal auth.Principal, limit, offset int) ([]model.Order, error) {
	if err := requireBuyer(principal); err != nil {
		return nil, err
	}

	limit, offset = normalizePage(limit, offset)

	orders, err := s.orderRepo.ListByBuyer(ctx, principal.BuyerID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("buyer_id", principal.BuyerID).Msg("failed to list orders")
		return nil, repository.Classify(fmt.Errorf("failed to list orders: %w", err))
	}

	return orders, nil
}

// UpdateOrderStatus sets a new status under a row lock. Entering shipped or
// delivered queues a customer notification after commit.
func (s *orderService) UpdateOrderStatus(ctx context.Context, principal auth.Principal, id uuid.UUID, status string) (_ *model.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateOrderStatus")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.status", status),
	)

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	next, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, previous, err := s.updateStatus(ctx, id, next)
	if err != nil {
		return nil, repository.Classify(err)
	}

	s.metrics.StatusUpdated(string(next))
	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(previous)).
		Str("to", string(next)).
		Str("admin_id", principal.BuyerID).
		Msg("order status updated")

	if previous != next {
		if kind, ok := notify.KindForStatus(next); ok {
			s.notifier.Notify(ctx, kind, order)
		}
	}

	return order, nil
}

func (s *orderService) updateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (order *model.Order, previous model.OrderStatus, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PlacementTimeout)
	defer cancel()

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to update order status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := rollback(ctx, tx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err = s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		err = model.ErrNotFound
		return nil, "", err
	}

	previous = order.Status
	if s.cfg.StrictTransitions && !previous.CanTransitionTo(next) {
		err = model.NewTransitionError(previous, next)
		return nil, "", err
	}

	updatedAt, err := s.orderRepo.UpdateStatus(ctx, tx, id, next)
	if err != nil {
		return nil, "", err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to commit status update: %w", err)
	}

	order.Status = next
	order.UpdatedAt = updatedAt
	return order, previous, nil
}
