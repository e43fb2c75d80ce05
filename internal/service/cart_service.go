package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopfront/internal/auth"
	"shopfront/internal/model"
	"shopfront/internal/pricing"
	"shopfront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	txs         TxBeginner
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	txs TxBeginner,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		txs:         txs,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// Get returns the buyer's cart priced at current catalogue prices.
func (s *cartService) Get(ctx context.Context, principal auth.Principal) (*model.Cart, error) {
	if err := requireBuyer(principal); err != nil {
		return nil, err
	}

	items, err := s.cartRepo.Get(ctx, principal.BuyerID)
	if err != nil {
		s.logger.Error().Err(err).Str("buyer_id", principal.BuyerID).Msg("failed to get cart")
		return nil, repository.Classify(fmt.Errorf("failed to get cart: %w", err))
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(pricing.LineTotal(item.UnitPrice, item.Quantity))
	}

	return &model.Cart{
		BuyerID:  principal.BuyerID,
		Items:    items,
		Subtotal: subtotal.Round(2),
	}, nil
}

// AddItem adds quantity of a product, merging with an existing line.
func (s *cartService) AddItem(ctx context.Context, principal auth.Principal, req *model.AddCartItemRequest) (*model.Cart, error) {
	if err := requireBuyer(principal); err != nil {
		return nil, err
	}
	if req == nil || strings.TrimSpace(req.ProductID) == "" {
		return nil, model.ErrProductNotFound
	}
	if req.Quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.activeProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	quantity, err := s.cartRepo.AddItem(ctx, principal.BuyerID, product.ID, req.Quantity)
	if errors.Is(err, repository.ErrStockExceeded) {
		s.logger.Debug().
			Str("buyer_id", principal.BuyerID).
			Str("product_id", product.ID).
			Int("requested", req.Quantity).
			Int("stock", product.Stock).
			Msg("cart add exceeds stock")
		return nil, model.NewInsufficientStockError(product.ID, product.Name)
	}
	if err != nil {
		return nil, repository.Classify(fmt.Errorf("failed to add cart item: %w", err))
	}

	s.logger.Debug().
		Str("buyer_id", principal.BuyerID).
		Str("product_id", product.ID).
		Int("quantity", quantity).
		Msg("cart item added")

	return s.Get(ctx, principal)
}

// UpdateQuantity replaces the quantity of a line already in the cart.
func (s *cartService) UpdateQuantity(ctx context.Context, principal auth.Principal, productID string, quantity int) (*model.Cart, error) {
	if err := requireBuyer(principal); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, model.NewInsufficientStockError(product.ID, product.Name)
	}

	if err := s.cartRepo.SetQuantity(ctx, principal.BuyerID, productID, quantity); err != nil {
		return nil, repository.Classify(err)
	}

	return s.Get(ctx, principal)
}

// RemoveItem deletes a line from the cart.
func (s *cartService) RemoveItem(ctx context.Context, principal auth.Principal, productID string) (*model.Cart, error) {
	if err := requireBuyer(principal); err != nil {
		return nil, err
	}

	if err := s.cartRepo.RemoveItem(ctx, principal.BuyerID, productID); err != nil {
		return nil, repository.Classify(err)
	}

	return s.Get(ctx, principal)
}

// Clear empties the cart.
func (s *cartService) Clear(ctx context.Context, principal auth.Principal) (err error) {
	if err := requireBuyer(principal); err != nil {
		return err
	}

	tx, err := s.txs.BeginTx(ctx)
	if err != nil {
		return repository.Classify(fmt.Errorf("failed to clear cart: %w", err))
	}

	defer func() {
		if err != nil {
			if rbErr := rollback(ctx, tx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.cartRepo.Clear(ctx, tx, principal.BuyerID); err != nil {
		return repository.Classify(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return repository.Classify(fmt.Errorf("failed to clear cart: %w", err))
	}

	return nil
}

func (s *cartService) activeProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, repository.Classify(fmt.Errorf("failed to get product: %w", err))
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}
	return product, nil
}
