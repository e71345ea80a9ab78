// Package reviews enforces the one-review-per-user-per-product rule and
// keeps a product's aggregate rating consistent with its embedded review
// sequence.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"medsupply/internal/models"
)

var (
	ErrInvalidRating   = errors.New("rating must be an integer between 1 and 5")
	ErrCommentTooShort = errors.New("review comment must be at least 10 characters")
	ErrProductNotFound = errors.New("product not found")
	ErrAlreadyReviewed = errors.New("you have already reviewed this product")
)

const minCommentLength = 10

// ProductStore is the persistence surface the ledger needs. AppendReview
// must be atomic with respect to concurrent appends: it appends the review
// and recomputes the aggregates in one storage-side operation, and reports
// false (without writing) when the user already has a review on the product.
type ProductStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	AppendReview(ctx context.Context, productID primitive.ObjectID, review models.Review) (bool, error)
}

// Ledger runs review submissions against a ProductStore.
type Ledger struct {
	products ProductStore
}

func NewLedger(products ProductStore) *Ledger {
	return &Ledger{products: products}
}

// Submit appends one review by the given user and returns the product with
// its aggregates recomputed. The reviewer's display name is snapshotted into
// the review, so later renames do not rewrite review history.
func (l *Ledger) Submit(ctx context.Context, productID primitive.ObjectID, user models.User, rating int, comment string) (*models.Product, error) {
	comment = strings.TrimSpace(comment)
	if err := ValidateSubmission(rating, comment); err != nil {
		return nil, err
	}

	product, err := l.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	// The embedded-review model has no storage-level uniqueness constraint,
	// so the invariant is enforced here.
	if HasReviewBy(product.Reviews, user.ID) {
		return nil, ErrAlreadyReviewed
	}

	review := models.Review{
		UserID:    user.ID,
		Name:      user.DisplayName(),
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	appended, err := l.products.AppendReview(ctx, productID, review)
	if err != nil {
		return nil, fmt.Errorf("append review: %w", err)
	}
	if !appended {
		// Lost a double-submit race: another request passed the scan above
		// and won the guarded write.
		return nil, ErrAlreadyReviewed
	}

	return l.products.FindByID(ctx, productID)
}

// ValidateSubmission checks the rating range and the trimmed comment length.
func ValidateSubmission(rating int, trimmedComment string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if len(trimmedComment) < minCommentLength {
		return ErrCommentTooShort
	}
	return nil
}

// HasReviewBy reports whether the sequence already holds a review owned by
// the given user.
func HasReviewBy(reviews []models.Review, userID primitive.ObjectID) bool {
	for _, r := range reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// AverageRating recomputes the aggregate from the full sequence. Aggregates
// are always derived wholesale after a mutation, never nudged incrementally,
// so they cannot drift from the reviews they summarize.
func AverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
