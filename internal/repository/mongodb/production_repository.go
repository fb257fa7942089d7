package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// BatchRepository persists production batches.
type BatchRepository struct {
	coll *mongo.Collection
}

// Insert stores a new batch.
func (r *BatchRepository) Insert(ctx context.Context, batch *models.ProductionBatch) error {
	if _, err := r.coll.InsertOne(ctx, batch); err != nil {
		return fmt.Errorf("failed to insert production batch: %w", err)
	}
	return nil
}

// FindByID loads one batch.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.ProductionBatch, error) {
	var batch models.ProductionBatch
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find production batch: %w", err)
	}
	return &batch, nil
}

// List returns batches, optionally filtered by status.
func (r *BatchRepository) List(ctx context.Context, status models.BatchStatus) ([]models.ProductionBatch, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list production batches: %w", err)
	}

	var batches []models.ProductionBatch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("failed to decode production batches: %w", err)
	}
	return batches, nil
}

// Replace writes the full batch conditionally on its current status.
func (r *BatchRepository) Replace(ctx context.Context, batch *models.ProductionBatch, expected models.BatchStatus) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": batch.ID, "status": expected}, batch)
	if err != nil {
		return fmt.Errorf("failed to replace production batch: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrStatusConflict
	}
	return nil
}
