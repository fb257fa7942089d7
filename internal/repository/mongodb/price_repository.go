package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
)

// PriceRepository persists price entries. Absence is reported as
// (nil, nil) so the resolver can fall through cleanly.
type PriceRepository struct {
	coll *mongo.Collection
}

// EnsureIndexes creates the unique (date, classification, grade) index
// backing the duplicate rejection invariant.
func (r *PriceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "effective_date", Value: 1},
			{Key: "classification", Value: 1},
			{Key: "grade", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create price index: %w", err)
	}
	return nil
}

// FindExact returns the entry matching the tuple exactly, or nil.
func (r *PriceRepository) FindExact(ctx context.Context, date time.Time, class models.Classification, grade string) (*models.PriceEntry, error) {
	filter := bson.M{
		"effective_date": date,
		"classification": class,
	}
	if grade == "" {
		filter["grade"] = bson.M{"$in": bson.A{"", nil}}
	} else {
		filter["grade"] = grade
	}

	var entry models.PriceEntry
	err := r.coll.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find price entry: %w", err)
	}
	return &entry, nil
}

// FindLatestBefore returns the most recent ungraded entry at or before
// the date for the classification, or nil. Graded rows are excluded so
// the fallback layer matches the same rows FindExact would.
func (r *PriceRepository) FindLatestBefore(ctx context.Context, date time.Time, class models.Classification) (*models.PriceEntry, error) {
	filter := bson.M{
		"effective_date": bson.M{"$lte": date},
		"classification": class,
		"grade":          bson.M{"$in": bson.A{"", nil}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "effective_date", Value: -1}})

	var entry models.PriceEntry
	err := r.coll.FindOne(ctx, filter, opts).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest price entry: %w", err)
	}
	return &entry, nil
}

// Insert stores a new price entry.
func (r *PriceRepository) Insert(ctx context.Context, entry *models.PriceEntry) error {
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert price entry: %w", err)
	}
	return nil
}

// Update replaces an existing price entry by ID.
func (r *PriceRepository) Update(ctx context.Context, entry *models.PriceEntry) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry)
	if err != nil {
		return fmt.Errorf("failed to update price entry: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByDate returns all entries effective on the given date.
func (r *PriceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.PriceEntry, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"effective_date": date})
	if err != nil {
		return nil, fmt.Errorf("failed to list price entries: %w", err)
	}

	var entries []models.PriceEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode price entries: %w", err)
	}
	return entries, nil
}
