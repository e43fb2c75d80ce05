package repository

import (
	"context"
	"errors"
	"fmt"

	"shopfront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	reviewColumns = `id, product_id, buyer_id, rating, title, comment, verified_purchase, helpful_count, created_at`

	reviewConstraint = "reviews_product_buyer"
)

// reviewRepository implements the ReviewRepository interface using PostgreSQL.
type reviewRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReviewRepository {
	return &reviewRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "review").Logger(),
	}
}

func scanReview(row pgx.Row, rv *model.Review) error {
	return row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.BuyerID,
		&rv.Rating,
		&rv.Title,
		&rv.Comment,
		&rv.VerifiedPurchase,
		&rv.HelpfulCount,
		&rv.CreatedAt,
	)
}

// ListByProduct returns a product's reviews, most helpful first and then newest.
func (r *reviewRepository) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]model.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1
		ORDER BY helpful_count DESC, created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, productID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID).Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := scanReview(rows, &rv); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan review row")
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// Stats aggregates every review of a product. The average is rounded to one
// decimal place and is zero when there are no reviews.
func (r *reviewRepository) Stats(ctx context.Context, productID string) (*model.ReviewStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(ROUND(AVG(rating), 1), 0)::float8,
		       COUNT(*) FILTER (WHERE rating = 5),
		       COUNT(*) FILTER (WHERE rating = 4),
		       COUNT(*) FILTER (WHERE rating = 3),
		       COUNT(*) FILTER (WHERE rating = 2),
		       COUNT(*) FILTER (WHERE rating = 1)
		FROM reviews
		WHERE product_id = $1
	`

	var s model.ReviewStats
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&s.TotalReviews,
		&s.AverageRating,
		&s.FiveStars,
		&s.FourStars,
		&s.ThreeStars,
		&s.TwoStars,
		&s.OneStar,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID).Msg("failed to aggregate reviews")
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	return &s, nil
}

// Create inserts review. VerifiedPurchase, HelpfulCount and CreatedAt are
// filled from the inserted row.
func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, buyer_id, rating, title, comment, verified_purchase)
		VALUES ($1, $2, $3, $4, $5, $6, EXISTS (
			SELECT 1
			FROM order_lines ol
			JOIN orders o ON o.id = ol.order_id
			WHERE o.buyer_id = $3 AND ol.product_id = $2 AND o.status = 'delivered'
		))
		RETURNING verified_purchase, helpful_count, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		review.ID,
		review.ProductID,
		review.BuyerID,
		review.Rating,
		review.Title,
		review.Comment,
	).Scan(&review.VerifiedPurchase, &review.HelpfulCount, &review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, reviewConstraint) {
			r.logger.Info().
				Str("product_id", review.ProductID).
				Str("buyer_id", review.BuyerID).
				Msg("buyer already reviewed product")
			return ErrDuplicateReview
		}
		r.logger.Error().Err(err).Str("product_id", review.ProductID).Msg("failed to create review")
		return fmt.Errorf("failed to create review: %w", err)
	}

	r.logger.Debug().
		Str("review_id", review.ID.String()).
		Bool("verified_purchase", review.VerifiedPurchase).
		Msg("review created")

	return nil
}

// MarkHelpful increments a review's helpful count.
func (r *reviewRepository) MarkHelpful(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	query := `
		UPDATE reviews
		SET helpful_count = helpful_count + 1
		WHERE id = $1
		RETURNING ` + reviewColumns

	var rv model.Review
	if err := scanReview(r.pool.QueryRow(ctx, query, id), &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("review_id", id.String()).Msg("failed to mark review helpful")
		return nil, fmt.Errorf("failed to mark review helpful: %w", err)
	}

	return &rv, nil
}
