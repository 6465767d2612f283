package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User holds the persisted mirror of the shopper's cart.
type User struct {
	ID          bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string        `json:"name" bson:"name"`
	Email       string        `json:"email" bson:"email"`
	CartItems   CartItems     `json:"cartItems" bson:"cartItems"`
	CartVersion int64         `json:"cartVersion" bson:"cartVersion"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}
