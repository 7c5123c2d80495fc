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

// MongoHoldingRepository stores holdings in the "holdings" collection.
type MongoHoldingRepository struct {
	coll *mongo.Collection
}

// NewMongoHoldingRepository creates a new instance of MongoHoldingRepository.
func NewMongoHoldingRepository(db *mongo.Database) *MongoHoldingRepository {
	return &MongoHoldingRepository{coll: db.Collection(HoldingsCollection)}
}

// GetByHoldingID retrieves a holding by its application-level id.
func (r *MongoHoldingRepository) GetByHoldingID(ctx context.Context, holdingID string) (*models.Holding, error) {
	var holding models.Holding
	if err := r.coll.FindOne(ctx, bson.M{"HoldingId": holdingID}).Decode(&holding); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("holding %s: %w", holdingID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get holding %s: %w", holdingID, err)
	}
	if holding.Holdings == nil {
		holding.Holdings = []models.Position{}
	}
	return &holding, nil
}

// Create inserts a new holding document.
func (r *MongoHoldingRepository) Create(ctx context.Context, holding *models.Holding) error {
	if holding.ID == "" {
		holding.ID = uuid.New().String()
	}
	if holding.Holdings == nil {
		holding.Holdings = []models.Position{}
	}
	now := time.Now()
	holding.CreatedAt, holding.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, holding); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("holding %s: %w", holding.HoldingID, errs.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create holding: %w", err)
	}
	return nil
}

// Update replaces Holdings only when the stored version still matches the one read.
func (r *MongoHoldingRepository) Update(ctx context.Context, holdingID string, mutate HoldingMutator) (*models.Holding, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.GetByHoldingID(ctx, holdingID)
		if err != nil {
			return nil, err
		}
		seen := current.Version
		if err := mutate(current); err != nil {
			return nil, err
		}
		if current.Holdings == nil {
			current.Holdings = []models.Position{}
		}
		current.Version = seen + 1
		current.UpdatedAt = time.Now()

		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": current.ID, "version": seen},
			bson.M{"$set": bson.M{
				"Holdings":  current.Holdings,
				"version":   current.Version,
				"updatedAt": current.UpdatedAt,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update holding %s: %w", holdingID, err)
		}
		if res.MatchedCount == 1 {
			return current, nil
		}
	}
	return nil, fmt.Errorf("holding %s: %w", holdingID, errs.ErrVersionConflict)
}
