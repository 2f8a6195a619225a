package historical

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// RunRetention periodically deletes documents from collection older
// than retentionDays, using the timestamp embedded in each document's
// ObjectID _id rather than a separate timestamp field — MongoSink never
// sets one. Blocks until ctx is cancelled; pass retentionDays <= 0 to
// disable.
func RunRetention(ctx context.Context, collection *mongo.Collection, retentionDays int) {
	if retentionDays <= 0 {
		return
	}

	interval := 1 * time.Hour
	prune(ctx, collection, retentionDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune(ctx, collection, retentionDays)
		}
	}
}

func prune(ctx context.Context, collection *mongo.Collection, retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	cutoffID := bson.NewObjectIDFromTimestamp(cutoff)
	_, _ = collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$lt": cutoffID}})
}
