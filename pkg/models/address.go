package models

import "go.mongodb.org/mongo-driver/v2/bson"

// Address is a saved delivery address. Orders reference it by id.
type Address struct {
	ID        bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string        `json:"userId" bson:"userId"`
	FirstName string        `json:"firstName" bson:"firstName"`
	LastName  string        `json:"lastName" bson:"lastName"`
	Email     string        `json:"email" bson:"email"`
	Street    string        `json:"street" bson:"street"`
	City      string        `json:"city" bson:"city"`
	State     string        `json:"state" bson:"state"`
	Zipcode   string        `json:"zipcode" bson:"zipcode"`
	Country   string        `json:"country" bson:"country"`
	Phone     string        `json:"phone" bson:"phone"`
}
