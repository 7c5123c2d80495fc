package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"growup/internal/errs"
	"growup/internal/models"
)

// GORMHoldingRepository is a GORM implementation of HoldingRepository.
type GORMHoldingRepository struct {
	db *gorm.DB
}

// NewGORMHoldingRepository creates a new instance of GORMHoldingRepository.
func NewGORMHoldingRepository(db *gorm.DB) *GORMHoldingRepository {
	return &GORMHoldingRepository{
		db: db,
	}
}

// GetByHoldingID retrieves a holding by its application-level id.
func (r *GORMHoldingRepository) GetByHoldingID(ctx context.Context, holdingID string) (*models.Holding, error) {
	var holding models.Holding
	if err := r.db.WithContext(ctx).First(&holding, "holding_id = ?", holdingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("holding %s: %w", holdingID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get holding %s: %w", holdingID, err)
	}
	if holding.Holdings == nil {
		holding.Holdings = []models.Position{}
	}
	return &holding, nil
}

// Create inserts a new holding.
func (r *GORMHoldingRepository) Create(ctx context.Context, holding *models.Holding) error {
	if holding.ID == "" {
		holding.ID = uuid.New().String()
	}
	if holding.Holdings == nil {
		holding.Holdings = []models.Position{}
	}
	if err := r.db.WithContext(ctx).Create(holding).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("holding %s: %w", holding.HoldingID, errs.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create holding: %w", err)
	}
	return nil
}

// Update performs a compare-and-swap on the version column.
func (r *GORMHoldingRepository) Update(ctx context.Context, holdingID string, mutate HoldingMutator) (*models.Holding, error) {
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

		res := r.db.WithContext(ctx).
			Model(current).
			Select("holdings", "version", "updated_at").
			Where("version = ?", seen).
			Updates(current)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update holding %s: %w", holdingID, res.Error)
		}
		if res.RowsAffected == 1 {
			return current, nil
		}
	}
	return nil, fmt.Errorf("holding %s: %w", holdingID, errs.ErrVersionConflict)
}
