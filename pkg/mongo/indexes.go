package mongo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Order history per user, newest first
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_user_created"),
		},
	},
	// Seller view and the orphan sweeper both filter on payment state
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "paymentType", Value: 1},
				{Key: "isPaid", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_payment_state"),
		},
	},
	{
		CollectionName: usersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email_unique"),
		},
	},
	{
		CollectionName: addressesCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("idx_address_user"),
		},
	},
	{
		CollectionName: productsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "inStock", Value: 1},
			},
			Options: options.Index().SetName("idx_category_stock"),
		},
	},
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	log.Info().Msg("Starting index creation...")

	for _, idxConfig := range requiredIndexes {
		indexName, err := s.Collection(idxConfig.CollectionName).Indexes().CreateOne(ctx, idxConfig.IndexModel)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idxConfig.CollectionName, err)
		}
		log.Info().Str("index", indexName).Str("collection", idxConfig.CollectionName).Msg("index ready")
	}
	return nil
}
