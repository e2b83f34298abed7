package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sequencer allocates integer ids from a counters collection with one
// document per sequence name.
type Sequencer struct {
	collection *mongo.Collection
}

func NewSequencer(db *mongo.Database) *Sequencer {
	return &Sequencer{
		collection: db.Collection("counters"),
	}
}

func (s *Sequencer) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Value int64 `bson:"value"`
	}

	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("cannot advance sequence %s: %w", name, err)
	}

	return counter.Value, nil
}
