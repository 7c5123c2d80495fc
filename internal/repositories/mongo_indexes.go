package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection      = "users"
	WatchlistsCollection = "watchlists"
	HoldingsCollection   = "holdings"
)

// EnsureMongoIndexes creates the unique indexes the repositories rely on for
// duplicate detection. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	unique := map[string][]string{
		UsersCollection:      {"Email", "Username"},
		WatchlistsCollection: {"WatchlistId"},
		HoldingsCollection:   {"HoldingId"},
	}
	for collection, keys := range unique {
		models := make([]mongo.IndexModel, 0, len(keys))
		for _, key := range keys {
			models = append(models, mongo.IndexModel{
				Keys:    bson.D{{Key: key, Value: 1}},
				Options: options.Index().SetUnique(true),
			})
		}
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
