package historical

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoSink persists every published entity as one document in a Mongo
// collection. It implements fabric.Connector[T].
type MongoSink[T any] struct {
	ctx        context.Context
	collection *mongo.Collection
}

// NewMongoSink constructs a MongoSink writing into db.collectionName.
func NewMongoSink[T any](ctx context.Context, db *mongo.Database, collectionName string) *MongoSink[T] {
	return &MongoSink[T]{ctx: ctx, collection: db.Collection(collectionName)}
}

// Publish inserts v as a new document.
func (s *MongoSink[T]) Publish(v T) error {
	if _, err := s.collection.InsertOne(s.ctx, v); err != nil {
		return fmt.Errorf("historical: mongo insert: %w", err)
	}
	return nil
}
