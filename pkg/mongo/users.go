package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"greencart.dev/storefront/pkg/global"
	"greencart.dev/storefront/pkg/models"
)

var ErrUserNotFound = global.NewError(global.KindNotFound, "User not found", nil)

type UserRepository struct {
	coll *mongo.Collection
}

func userObjectID(userID string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return bson.ObjectID{}, ErrUserNotFound
	}
	return oid, nil
}

// CartFilter selects the user and, when expected is set, only at that cart version.
// Documents written before versioning have no cartVersion and count as version 0.
func CartFilter(oid bson.ObjectID, expected *int64) bson.D {
	filter := bson.D{{Key: "_id", Value: oid}}
	if expected == nil {
		return filter
	}
	if *expected == 0 {
		return append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "cartVersion", Value: int64(0)}},
			bson.D{{Key: "cartVersion", Value: bson.D{{Key: "$exists", Value: false}}}},
		}})
	}
	return append(filter, bson.E{Key: "cartVersion", Value: *expected})
}

func (r *UserRepository) GetCart(ctx context.Context, userID string) (models.CartItems, int64, error) {
	oid, err := userObjectID(userID)
	if err != nil {
		return nil, 0, err
	}
	var user models.User
	opts := options.FindOne().SetProjection(bson.D{{Key: "cartItems", Value: 1}, {Key: "cartVersion", Value: 1}})
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, 0, ErrUserNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get cart for %s: %w", userID, err)
	}
	if user.CartItems == nil {
		user.CartItems = models.CartItems{}
	}
	return user.CartItems, user.CartVersion, nil
}

// ReplaceCart overwrites the whole cart. With an expected version the write only lands if the
// stored version still matches; ok is false when it does not.
func (r *UserRepository) ReplaceCart(ctx context.Context, userID string, items models.CartItems, expected *int64) (version int64, ok bool, err error) {
	oid, err := userObjectID(userID)
	if err != nil {
		return 0, false, err
	}
	if items == nil {
		items = models.CartItems{}
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "cartItems", Value: items}, {Key: "updatedAt", Value: time.Now()}}},
		{Key: "$inc", Value: bson.D{{Key: "cartVersion", Value: int64(1)}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "cartVersion", Value: 1}})

	var user models.User
	err = r.coll.FindOneAndUpdate(ctx, CartFilter(oid, expected), update, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if expected == nil {
			return 0, false, ErrUserNotFound
		}
		// Either the user is gone or the version moved on.
		_, current, getErr := r.GetCart(ctx, userID)
		if getErr != nil {
			return 0, false, getErr
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("replace cart for %s: %w", userID, err)
	}
	return user.CartVersion, true, nil
}

func (r *UserRepository) ClearCart(ctx context.Context, userID string) error {
	oid, err := userObjectID(userID)
	if err != nil {
		return err
	}
	_, err = r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: "cartItems", Value: bson.D{}}, {Key: "updatedAt", Value: time.Now()}}},
			{Key: "$inc", Value: bson.D{{Key: "cartVersion", Value: int64(1)}}},
		},
	)
	if err != nil {
		return fmt.Errorf("clear cart for %s: %w", userID, err)
	}
	return nil
}
