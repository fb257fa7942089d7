package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterRepository hands out daily sequence numbers. The upserted
// $inc runs server-side, so concurrent stations can never draw the
// same number for one scope and day.
type CounterRepository struct {
	coll *mongo.Collection
}

// NextSequence atomically increments and returns the counter for the
// given scope (queue, ticket, batch) and day.
func (r *CounterRepository) NextSequence(ctx context.Context, scope string, day time.Time) (int, error) {
	id := fmt.Sprintf("%s:%s", scope, day.Format("2006-01-02"))

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int `bson:"seq"`
	}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", id, err)
	}

	return doc.Seq, nil
}
