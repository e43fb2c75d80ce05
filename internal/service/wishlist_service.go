package service

import (
	"context"
	"fmt"
	"strings"

	"shopfront/internal/auth"
	"shopfront/internal/model"
	"shopfront/internal/repository"

	"github.com/rs/zerolog"
)

// wishlistService implements WishlistService.
type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
	logger       zerolog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository, logger zerolog.Logger) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		logger:       logger.With().Str("service", "wishlist").Logger(),
	}
}

// Get returns the buyer's wishlist with current catalogue data.
func (s *wishlistService) Get(ctx context.Context, principal auth.Principal) (*model.Wishlist, error) {
	if err := requireBuyer(principal); err != nil {
		return nil, err
	}

	items, err := s.wishlistRepo.List(ctx, principal.BuyerID)
	if err != nil {
		s.logger.Error().Err(err).Str("buyer_id", principal.BuyerID).Msg("failed to get wishlist")
		return nil, repository.Classify(fmt.Errorf("failed to get wishlist: %w", err))
	}

	return &model.Wishlist{BuyerID: principal.BuyerID, Items: items}, nil
}

// Add saves an active product. Saving a product already on the list is not an error.
func (s *wishlistService) Add(ctx context.Context, principal auth.Principal, req *model.AddWishlistItemRequest) (*model.Wishlist, error) {
	if err := requireBuyer(principal); err != nil {
		return nil, err
	}
	if req == nil || strings.TrimSpace(req.ProductID) == "" {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, repository.Classify(fmt.Errorf("failed to get product: %w", err))
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(req.ProductID)
	}

	added, err := s.wishlistRepo.Add(ctx, principal.BuyerID, product.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("buyer_id", principal.BuyerID).Str("product_id", product.ID).Msg("failed to add wishlist item")
		return nil, repository.Classify(fmt.Errorf("failed to add wishlist item: %w", err))
	}

	s.logger.Debug().
		Str("buyer_id", principal.BuyerID).
		Str("product_id", product.ID).
		Bool("added", added).
		Msg("wishlist item saved")

	return s.Get(ctx, principal)
}

// Remove drops a product from the buyer's wishlist.
func (s *wishlistService) Remove(ctx context.Context, principal auth.Principal, productID string) (*model.Wishlist, error) {
	if err := requireBuyer(principal); err != nil {
		return nil, err
	}

	removed, err := s.wishlistRepo.Remove(ctx, principal.BuyerID, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("buyer_id", principal.BuyerID).Str("product_id", productID).Msg("failed to remove wishlist item")
		return nil, repository.Classify(fmt.Errorf("failed to remove wishlist item: %w", err))
	}
	if !removed {
		return nil, model.ErrWishlistItemNotFound
	}

	return s.Get(ctx, principal)
}
