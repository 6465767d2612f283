package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"greencart.dev/storefront/pkg/models"
)

type AddressRepository struct {
	coll *mongo.Collection
}

func (r *AddressRepository) AddressesByIDs(ctx context.Context, ids []string) (map[string]models.Address, error) {
	out := make(map[string]models.Address, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}

	cursor, err := r.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
	if err != nil {
		return nil, fmt.Errorf("find addresses: %w", err)
	}
	defer cursor.Close(ctx)

	var addresses []models.Address
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}
	for _, a := range addresses {
		out[a.ID.Hex()] = a
	}
	return out, nil
}
