package repository

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// ProductReview is a review row with the reviewer's display name.
type ProductReview struct {
	Review       domain.Review `json:"review"`
	ReviewerName string        `json:"reviewer_name"`
}

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]ProductReview, error)
	AverageRating(ctx context.Context, productID uuid.UUID) (float64, int, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts a new review
func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ListByProduct retrieves a product's reviews with reviewer names, newest first
func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]ProductReview, error) {
	query := `
		SELECT rv.id, rv.product_id, rv.user_id, rv.rating, rv.comment, rv.created_at,
		       COALESCE(p.full_name, '')
		FROM reviews rv
		LEFT JOIN profiles p ON p.id = rv.user_id
		WHERE rv.product_id = $1
		ORDER BY rv.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []ProductReview{}
	for rows.Next() {
		var pr ProductReview
		err := rows.Scan(
			&pr.Review.ID,
			&pr.Review.ProductID,
			&pr.Review.UserID,
			&pr.Review.Rating,
			&pr.Review.Comment,
			&pr.Review.CreatedAt,
			&pr.ReviewerName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, pr)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// AverageRating returns the mean rating and review count for a product
func (r *reviewRepository) AverageRating(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE product_id = $1
	`

	var avg float64
	var count int
	if err := r.db.QueryRowContext(ctx, query, productID).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to compute average rating: %w", err)
	}

	return avg, count, nil
}
