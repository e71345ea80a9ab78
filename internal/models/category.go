package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category optionally weak-references a Brand; deleting the brand leaves the
// reference dangling and reads treat it as "no brand".
type Category struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Brand       *primitive.ObjectID `bson:"brand,omitempty" json:"brand,omitempty"`
	Description string              `bson:"description" json:"description"`
	Image       Image               `bson:"image" json:"image"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}
