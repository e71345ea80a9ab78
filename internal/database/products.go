package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"medsupply/internal/models"
	"medsupply/internal/reviews"
)

// ProductStore is the Mongo-backed implementation of reviews.ProductStore.
type ProductStore struct {
	db *mongo.Database
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{db: db}
}

func (s *ProductStore) collection() *mongo.Collection {
	return s.db.Collection("products")
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, reviews.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AppendReview appends the review and recomputes numReviews and rating in a
// single filtered pipeline update. The filter refuses documents that already
// hold a review by the same user, and the pipeline derives the aggregates
// from the post-append array server-side, so concurrent submissions can
// neither double-insert for one user nor lose each other's aggregate
// updates. Per-document write atomicity makes the whole step transactional.
func (s *ProductStore) AppendReview(ctx context.Context, productID primitive.ObjectID, review models.Review) (bool, error) {
	filter := bson.M{
		"_id":     productID,
		"reviews": bson.M{"$not": bson.M{"$elemMatch": bson.M{"user": review.UserID}}},
	}

	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"reviews": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$reviews", bson.A{}}},
				bson.A{bson.M{"$literal": review}},
			}},
		}}},
		bson.D{{Key: "$set", Value: bson.M{
			"numReviews": bson.M{"$size": "$reviews"},
			"rating":     bson.M{"$avg": "$reviews.rating"},
			"updatedAt":  "$$NOW",
		}}},
	}

	res, err := s.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	// Nothing matched: either the product is gone or this user already has
	// a review on it.
	if err := s.collection().FindOne(ctx, bson.M{"_id": productID}).Err(); errors.Is(err, mongo.ErrNoDocuments) {
		return false, reviews.ErrProductNotFound
	} else if err != nil {
		return false, err
	}
	return false, nil
}
