package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"growup/internal/errs"
	"growup/internal/models"
)

// MockHoldingRepository is an in-memory implementation of HoldingRepository.
type MockHoldingRepository struct {
	holdings map[string]*models.Holding
	mu       sync.RWMutex
}

// NewMockHoldingRepository creates a new instance of MockHoldingRepository.
func NewMockHoldingRepository() *MockHoldingRepository {
	return &MockHoldingRepository{
		holdings: make(map[string]*models.Holding),
	}
}

// GetByHoldingID returns a copy of the stored holding.
func (r *MockHoldingRepository) GetByHoldingID(_ context.Context, holdingID string) (*models.Holding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.holdings[holdingID]
	if !ok {
		return nil, fmt.Errorf("holding %s: %w", holdingID, errs.ErrNotFound)
	}
	return h.Clone(), nil
}

// Create adds a new holding.
func (r *MockHoldingRepository) Create(_ context.Context, holding *models.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.holdings[holding.HoldingID]; ok {
		return fmt.Errorf("holding %s: %w", holding.HoldingID, errs.ErrAlreadyExists)
	}
	if holding.ID == "" {
		holding.ID = uuid.New().String()
	}
	if holding.Holdings == nil {
		holding.Holdings = []models.Position{}
	}
	now := time.Now()
	holding.CreatedAt, holding.UpdatedAt = now, now
	r.holdings[holding.HoldingID] = holding.Clone()
	return nil
}

// Update mutates the stored holding under the lock.
func (r *MockHoldingRepository) Update(_ context.Context, holdingID string, mutate HoldingMutator) (*models.Holding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.holdings[holdingID]
	if !ok {
		return nil, fmt.Errorf("holding %s: %w", holdingID, errs.ErrNotFound)
	}
	next := stored.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if next.Holdings == nil {
		next.Holdings = []models.Position{}
	}
	next.Version++
	next.UpdatedAt = time.Now()
	r.holdings[holdingID] = next
	return next.Clone(), nil
}
