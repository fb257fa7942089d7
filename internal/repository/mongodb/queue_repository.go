package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// QueueRepository persists queue entries.
type QueueRepository struct {
	coll *mongo.Collection
}

// Insert stores a new queue entry.
func (r *QueueRepository) Insert(ctx context.Context, entry *models.QueueEntry) error {
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}
	return nil
}

// FindByID loads one queue entry.
func (r *QueueRepository) FindByID(ctx context.Context, id string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find queue entry: %w", err)
	}
	return &entry, nil
}

// List returns queue entries, optionally filtered by status, newest
// first.
func (r *QueueRepository) List(ctx context.Context, status models.QueueStatus) ([]models.QueueEntry, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}

	var entries []models.QueueEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode queue entries: %w", err)
	}
	return entries, nil
}

// UpdateStatus moves the entry's status conditionally on its current
// value. A zero match count means another caller won the transition.
func (r *QueueRepository) UpdateStatus(ctx context.Context, id string, from, to models.QueueStatus, at time.Time) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to update queue status: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrStatusConflict
	}
	return nil
}
