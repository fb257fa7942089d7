// Package mongodb implements the persistence layer over MongoDB.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store owns the MongoDB connection and hands out the per-collection
// repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB and verifies the connection.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{client: client, db: client.Database(dbName)}, nil
}

// Counters returns the atomic sequence repository.
func (s *Store) Counters() *CounterRepository {
	return &CounterRepository{coll: s.db.Collection("counters")}
}

// Prices returns the price entry repository.
func (s *Store) Prices() *PriceRepository {
	return &PriceRepository{coll: s.db.Collection("price_entries")}
}

// Queues returns the queue entry repository.
func (s *Store) Queues() *QueueRepository {
	return &QueueRepository{coll: s.db.Collection("queue_entries")}
}

// Weighings returns the weighing record repository.
func (s *Store) Weighings() *WeighingRepository {
	return &WeighingRepository{coll: s.db.Collection("weighing_records")}
}

// Batches returns the production batch repository.
func (s *Store) Batches() *BatchRepository {
	return &BatchRepository{coll: s.db.Collection("production_batches")}
}

// Stock returns the stock movement repository.
func (s *Store) Stock() *StockRepository {
	return &StockRepository{coll: s.db.Collection("stock_movements")}
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
