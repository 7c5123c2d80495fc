package repositories

import (
	"context"

	"growup/internal/models"
)

// HoldingMutator edits a holding in place. Returning an error aborts the update.
type HoldingMutator func(h *models.Holding) error

// HoldingRepository defines the interface for holding data access.
// Create and Update follow the same contract as WatchlistRepository.
type HoldingRepository interface {
	GetByHoldingID(ctx context.Context, holdingID string) (*models.Holding, error)
	Create(ctx context.Context, holding *models.Holding) error
	Update(ctx context.Context, holdingID string, mutate HoldingMutator) (*models.Holding, error)
}
