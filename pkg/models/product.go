package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Product is read-only for the order flow. OfferPrice is the only price used for checkout.
type Product struct {
	ID          bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string        `json:"name" bson:"name"`
	Description []string      `json:"description" bson:"description"`
	Category    string        `json:"category" bson:"category"`
	Price       float64       `json:"price" bson:"price"`
	OfferPrice  float64       `json:"offerPrice" bson:"offerPrice"`
	Image       []string      `json:"image" bson:"image"`
	InStock     bool          `json:"inStock" bson:"inStock"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}
