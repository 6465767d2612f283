package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"greencart.dev/storefront/pkg/models"
)

type OrderRepository struct {
	coll *mongo.Collection
}

func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) (string, error) {
	res, err := r.coll.InsertOne(ctx, order)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert order: unexpected id type %T", res.InsertedID)
	}
	order.ID = oid
	return oid.Hex(), nil
}

// MarkPaid sets isPaid. Setting it again is a no-op, which keeps webhook replays harmless.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (bool, error) {
	oid, err := bson.ObjectIDFromHex(orderID)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "isPaid", Value: true},
			{Key: "paidAt", Value: paidAt},
			{Key: "updatedAt", Value: paidAt},
		}}},
	)
	if err != nil {
		return false, fmt.Errorf("mark order %s paid: %w", orderID, err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteUnpaid removes the order only while it is still unpaid.
func (r *OrderRepository) DeleteUnpaid(ctx context.Context, orderID string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(orderID)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}, {Key: "isPaid", Value: false}})
	if err != nil {
		return false, fmt.Errorf("delete order %s: %w", orderID, err)
	}
	return res.DeletedCount > 0, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	oid, err := bson.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, nil
	}
	var order models.Order
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", orderID, err)
	}
	return &order, nil
}

// VisibleOrdersFilter matches orders that belong in order history: cash on delivery, or paid.
// An empty userID matches every user.
func VisibleOrdersFilter(userID string) bson.D {
	filter := bson.D{}
	if userID != "" {
		filter = append(filter, bson.E{Key: "userId", Value: userID})
	}
	return append(filter, bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "paymentType", Value: models.PaymentCOD}},
		bson.D{{Key: "isPaid", Value: true}},
	}})
}

func (r *OrderRepository) FindVisible(ctx context.Context, userID string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, VisibleOrdersFilter(userID), opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// StaleUnpaidFilter matches online orders that never got a payment confirmation.
func StaleUnpaidFilter(before time.Time) bson.D {
	return bson.D{
		{Key: "paymentType", Value: models.PaymentOnline},
		{Key: "isPaid", Value: false},
		{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: before}}},
	}
}

// staleOrderFilter narrows StaleUnpaidFilter to a single order.
func staleOrderFilter(id bson.ObjectID, before time.Time) bson.D {
	return append(bson.D{{Key: "_id", Value: id}}, StaleUnpaidFilter(before)...)
}

// DeleteStaleUnpaid removes abandoned online orders one at a time and returns exactly the ones
// it removed. An order paid between the scan and its delete no longer matches and is kept.
// On error the orders removed so far are returned with it.
func (r *OrderRepository) DeleteStaleUnpaid(ctx context.Context, before time.Time) ([]models.Order, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, StaleUnpaidFilter(before), opts)
	if err != nil {
		return nil, fmt.Errorf("find stale orders: %w", err)
	}
	var candidates []struct {
		ID bson.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("decode stale orders: %w", err)
	}

	var removed []models.Order
	for _, c := range candidates {
		var order models.Order
		err := r.coll.FindOneAndDelete(ctx, staleOrderFilter(c.ID, before)).Decode(&order)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("delete stale order %s: %w", c.ID.Hex(), err)
		}
		removed = append(removed, order)
	}
	return removed, nil
}
