package mongo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	ordersCollection    = "orders"
	productsCollection  = "products"
	usersCollection     = "users"
	addressesCollection = "addresses"
)

// Store owns the client and hands out typed repositories over one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)

	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info().Str("database", database).Msg("Connected to MongoDB successfully")
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{coll: s.Collection(ordersCollection)}
}

func (s *Store) Products() *ProductRepository {
	return &ProductRepository{coll: s.Collection(productsCollection)}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{coll: s.Collection(usersCollection)}
}

func (s *Store) Addresses() *AddressRepository {
	return &AddressRepository{coll: s.Collection(addressesCollection)}
}
