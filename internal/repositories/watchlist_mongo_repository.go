package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"growup/internal/errs"
	"growup/internal/models"
)

// MongoWatchlistRepository stores watchlists in the "watchlists" collection.
type MongoWatchlistRepository struct {
	coll *mongo.Collection
}

// NewMongoWatchlistRepository creates a new instance of MongoWatchlistRepository.
func NewMongoWatchlistRepository(db *mongo.Database) *MongoWatchlistRepository {
	return &MongoWatchlistRepository{coll: db.Collection(WatchlistsCollection)}
}

// GetByWatchlistID retrieves a watchlist by its application-level id.
func (r *MongoWatchlistRepository) GetByWatchlistID(ctx context.Context, watchlistID string) (*models.Watchlist, error) {
	var watchlist models.Watchlist
	if err := r.coll.FindOne(ctx, bson.M{"WatchlistId": watchlistID}).Decode(&watchlist); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("watchlist %s: %w", watchlistID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get watchlist %s: %w", watchlistID, err)
	}
	if watchlist.Names == nil {
		watchlist.Names = []string{}
	}
	return &watchlist, nil
}

// Create inserts a new watchlist. The unique index on WatchlistId turns a
// racing second insert into errs.ErrAlreadyExists.
func (r *MongoWatchlistRepository) Create(ctx context.Context, watchlist *models.Watchlist) error {
	if watchlist.ID == "" {
		watchlist.ID = uuid.New().String()
	}
	if watchlist.Names == nil {
		watchlist.Names = []string{}
	}
	now := time.Now()
	watchlist.CreatedAt, watchlist.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, watchlist); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("watchlist %s: %w", watchlist.WatchlistID, errs.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create watchlist: %w", err)
	}
	return nil
}

// Update replaces Names only when the stored version still matches the one read.
func (r *MongoWatchlistRepository) Update(ctx context.Context, watchlistID string, mutate WatchlistMutator) (*models.Watchlist, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.GetByWatchlistID(ctx, watchlistID)
		if err != nil {
			return nil, err
		}
		seen := current.Version
		if err := mutate(current); err != nil {
			return nil, err
		}
		if current.Names == nil {
			current.Names = []string{}
		}
		current.Version = seen + 1
		current.UpdatedAt = time.Now()

		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": current.ID, "version": seen},
			bson.M{"$set": bson.M{
				"Names":     current.Names,
				"version":   current.Version,
				"updatedAt": current.UpdatedAt,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update watchlist %s: %w", watchlistID, err)
		}
		if res.MatchedCount == 1 {
			return current, nil
		}
	}
	return nil, fmt.Errorf("watchlist %s: %w", watchlistID, errs.ErrVersionConflict)
}
