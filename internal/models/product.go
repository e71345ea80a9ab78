package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is embedded in its product; it has no independent lifecycle and is
// immutable once written. Name is a snapshot of the reviewer's display name
// at submission time, not a live reference.
type Review struct {
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Name      string             `bson:"name" json:"name"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Product is a catalog entry. Brand and Category are weak references: the
// referenced document may be deleted independently and lookups must degrade
// to "no brand"/"no category". Rating and NumReviews are derived from the
// embedded review sequence and are never set directly.
type Product struct {
	ID                    primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name                  string              `bson:"name" json:"name"`
	Brand                 *primitive.ObjectID `bson:"brand,omitempty" json:"brand,omitempty"`
	Category              *primitive.ObjectID `bson:"category,omitempty" json:"category,omitempty"`
	ShortDescription      string              `bson:"shortDescription,omitempty" json:"shortDescription,omitempty"`
	LongDescription       string              `bson:"longDescription,omitempty" json:"longDescription,omitempty"`
	AdditionalInformation string              `bson:"additionalInformation,omitempty" json:"additionalInformation,omitempty"`
	Image                 Image               `bson:"image" json:"image"`
	Reviews               []Review            `bson:"reviews" json:"reviews"`
	Rating                float64             `bson:"rating" json:"rating"`
	NumReviews            int                 `bson:"numReviews" json:"numReviews"`
	CreatedAt             time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time           `bson:"updatedAt" json:"updatedAt"`
}
