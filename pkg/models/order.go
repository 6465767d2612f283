package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type PaymentType string

const (
	PaymentCOD    PaymentType = "COD"
	PaymentOnline PaymentType = "Online"
)

type OrderStatus string

const OrderStatusPlaced OrderStatus = "Order Placed"

// OrderItem is one cart line. Product is the product id.
type OrderItem struct {
	Product  string `json:"product" bson:"product"`
	Quantity int    `json:"quantity" bson:"quantity"`
}

type Order struct {
	ID          bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID      string        `json:"userId" bson:"userId"`
	Items       []OrderItem   `json:"items" bson:"items"`
	Amount      float64       `json:"amount" bson:"amount"`
	Address     string        `json:"address" bson:"address"`
	Status      OrderStatus   `json:"status" bson:"status"`
	PaymentType PaymentType   `json:"paymentType" bson:"paymentType"`
	IsPaid      bool          `json:"isPaid" bson:"isPaid"`
	PaidAt      *time.Time    `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// SetTimestamps sets createdAt once and refreshes updatedAt.
func (o *Order) SetTimestamps(now time.Time) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
}

// Visible reports whether the order belongs in order history. Online orders stay hidden
// until payment is confirmed.
func (o *Order) Visible() bool {
	return o.PaymentType == PaymentCOD || o.IsPaid
}

type PlaceOrderRequest struct {
	Items   []OrderItem `json:"items"`
	Address string      `json:"address"`
}

// OrderItemView is an item with its product document resolved.
type OrderItemView struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// OrderView is an order with product and address documents resolved for display.
type OrderView struct {
	ID          bson.ObjectID   `json:"_id"`
	UserID      string          `json:"userId"`
	Items       []OrderItemView `json:"items"`
	Amount      float64         `json:"amount"`
	Address     *Address        `json:"address"`
	Status      OrderStatus     `json:"status"`
	PaymentType PaymentType     `json:"paymentType"`
	IsPaid      bool            `json:"isPaid"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// GetItemCount returns the total number of units in the order
func (v *OrderView) GetItemCount() int {
	var count int
	for _, item := range v.Items {
		count += item.Quantity
	}
	return count
}
