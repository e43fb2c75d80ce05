package model

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds for product reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a buyer's rating of a product. A buyer reviews a product at most once.
type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID string    `json:"productId"`
	BuyerID   string    `json:"buyerId"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Comment   string    `json:"comment"`

	// VerifiedPurchase is set when the buyer had a delivered order containing
	// the product at the time of the review.
	VerifiedPurchase bool      `json:"verifiedPurchase"`
	HelpfulCount     int       `json:"helpfulCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ReviewStats summarises every review of a product.
type ReviewStats struct {
	TotalReviews  int     `json:"totalReviews"`
	AverageRating float64 `json:"averageRating"`
	FiveStars     int     `json:"fiveStars"`
	FourStars     int     `json:"fourStars"`
	ThreeStars    int     `json:"threeStars"`
	TwoStars      int     `json:"twoStars"`
	OneStar       int     `json:"oneStar"`
}

// ProductReviews is a page of a product's reviews with its overall stats.
type ProductReviews struct {
	ProductID string      `json:"productId"`
	Reviews   []Review    `json:"reviews"`
	Stats     ReviewStats `json:"stats"`
}

// CreateReviewRequest represents the payload for reviewing a product.
type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}
