package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Slide is a homepage slider entry; Order drives the public sort.
type Slide struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title,omitempty" json:"title,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Link        string             `bson:"link,omitempty" json:"link,omitempty"`
	Image       Image              `bson:"image" json:"image"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	Order       int                `bson:"order" json:"order"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
