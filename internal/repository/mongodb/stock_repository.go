package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// StockRepository is the append-only stock movement ledger.
type StockRepository struct {
	coll *mongo.Collection
}

// Insert appends one ledger entry.
func (r *StockRepository) Insert(ctx context.Context, movement *models.StockMovement) error {
	if _, err := r.coll.InsertOne(ctx, movement); err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}

// List returns the ledger for one product family, oldest first.
func (r *StockRepository) List(ctx context.Context, productType models.ProductType) ([]models.StockMovement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.M{"product_type": productType}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}

	var movements []models.StockMovement
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, fmt.Errorf("failed to decode stock movements: %w", err)
	}
	return movements, nil
}
