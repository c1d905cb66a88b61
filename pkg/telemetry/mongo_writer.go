package telemetry

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoWriter stores telemetry batches in a MongoDB collection.
// Append-only outcome records fit a document store well and keep the
// relational store free of high-churn telemetry writes.
type MongoWriter struct {
	coll *mongo.Collection
}

// NewMongoWriter creates a Mongo batch writer over the given collection.
func NewMongoWriter(coll *mongo.Collection) *MongoWriter {
	return &MongoWriter{coll: coll}
}

func (w *MongoWriter) WriteBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]any, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, e)
	}

	// Unordered insert: one malformed document must not drop the batch.
	_, err := w.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}
