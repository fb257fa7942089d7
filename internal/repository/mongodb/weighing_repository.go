package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// WeighingRepository persists weighing records.
type WeighingRepository struct {
	coll *mongo.Collection
}

// Insert stores a new weighing record.
func (r *WeighingRepository) Insert(ctx context.Context, rec *models.WeighingRecord) error {
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert weighing record: %w", err)
	}
	return nil
}

// FindByID loads one weighing record.
func (r *WeighingRepository) FindByID(ctx context.Context, id string) (*models.WeighingRecord, error) {
	var rec models.WeighingRecord
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find weighing record: %w", err)
	}
	return &rec, nil
}

// FindByQueueEntry loads the weighing record linked to a queue entry.
// The relation is 1:1.
func (r *WeighingRepository) FindByQueueEntry(ctx context.Context, queueEntryID string) (*models.WeighingRecord, error) {
	var rec models.WeighingRecord
	err := r.coll.FindOne(ctx, bson.M{"queue_entry_id": queueEntryID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find weighing record by queue entry: %w", err)
	}
	return &rec, nil
}

// Replace writes the full record conditionally on its current status,
// serializing concurrent mutations of the same ticket.
func (r *WeighingRepository) Replace(ctx context.Context, rec *models.WeighingRecord, expected models.WeighingStatus) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID, "status": expected}, rec)
	if err != nil {
		return fmt.Errorf("failed to replace weighing record: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrStatusConflict
	}
	return nil
}
