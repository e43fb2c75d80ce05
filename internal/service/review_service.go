package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"shopfront/internal/auth"
	"shopfront/internal/model"
	"shopfront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxReviewTitleLength   = 120
	maxReviewCommentLength = 2000
)

// reviewService implements ReviewService.
type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository, logger zerolog.Logger) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "review").Logger(),
	}
}

// List returns a page of the product's reviews together with stats computed
// over all of its reviews.
func (s *reviewService) List(ctx context.Context, productID string, limit, offset int) (*model.ProductReviews, error) {
	if _, err := s.activeProduct(ctx, productID); err != nil {
		return nil, err
	}

	limit, offset = normalizePage(limit, offset)

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to list reviews")
		return nil, repository.Classify(fmt.Errorf("failed to list reviews: %w", err))
	}

	stats, err := s.reviewRepo.Stats(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to aggregate reviews")
		return nil, repository.Classify(fmt.Errorf("failed to aggregate reviews: %w", err))
	}

	return &model.ProductReviews{
		ProductID: productID,
		Reviews:   reviews,
		Stats:     *stats,
	}, nil
}

// Create records the buyer's review of an active product.
func (s *reviewService) Create(ctx context.Context, principal auth.Principal, productID string, req *model.CreateReviewRequest) (review *model.Review, err error) {
	ctx, span := tracer.Start(ctx, "ReviewService.Create")
	defer func() { endSpan(span, err) }()

	if err := requireBuyer(principal); err != nil {
		return nil, err
	}
	if err := validateReview(req); err != nil {
		return nil, err
	}
	if _, err := s.activeProduct(ctx, productID); err != nil {
		return nil, err
	}

	review = &model.Review{
		ID:        uuid.New(),
		ProductID: productID,
		BuyerID:   principal.BuyerID,
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Comment:   strings.TrimSpace(req.Comment),
	}

	err = s.reviewRepo.Create(ctx, review)
	if errors.Is(err, repository.ErrDuplicateReview) {
		return nil, model.ErrAlreadyReviewed
	}
	if err != nil {
		s.logger.Error().Err(err).
			Str("product_id", productID).
			Str("buyer_id", principal.BuyerID).
			Msg("failed to create review")
		return nil, repository.Classify(fmt.Errorf("failed to create review: %w", err))
	}

	span.SetAttributes(
		attribute.String("review.id", review.ID.String()),
		attribute.Bool("review.verified_purchase", review.VerifiedPurchase),
	)

	s.logger.Info().
		Str("review_id", review.ID.String()).
		Str("product_id", productID).
		Int("rating", review.Rating).
		Bool("verified_purchase", review.VerifiedPurchase).
		Msg("review created")

	return review, nil
}

// MarkHelpful counts one more buyer finding the review helpful.
func (s *reviewService) MarkHelpful(ctx context.Context, principal auth.Principal, id uuid.UUID) (*model.Review, error) {
	if err := requireBuyer(principal); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.MarkHelpful(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to mark review helpful")
		return nil, repository.Classify(fmt.Errorf("failed to mark review helpful: %w", err))
	}
	if review == nil {
		return nil, model.ErrReviewNotFound
	}

	return review, nil
}

func validateReview(req *model.CreateReviewRequest) error {
	if req == nil {
		return model.ErrInvalidRating
	}
	if req.Rating < model.MinRating || req.Rating > model.MaxRating {
		return model.ErrInvalidRating
	}
	if strings.TrimSpace(req.Comment) == "" {
		return model.NewInvalidReviewError("comment")
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Title)) > maxReviewTitleLength {
		return model.NewDomainError(model.ErrCodeInvalidReview,
			fmt.Sprintf("Review title must be at most %d characters", maxReviewTitleLength))
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Comment)) > maxReviewCommentLength {
		return model.NewDomainError(model.ErrCodeInvalidReview,
			fmt.Sprintf("Review comment must be at most %d characters", maxReviewCommentLength))
	}
	return nil
}

func (s *reviewService) activeProduct(ctx context.Context, productID string) (*model.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, model.ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, repository.Classify(fmt.Errorf("failed to get product: %w", err))
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}
	return product, nil
}
