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

// MockWatchlistRepository is an in-memory implementation of WatchlistRepository.
// Update holds the write lock for the whole read-mutate-write, so it never
// needs to retry.
type MockWatchlistRepository struct {
	watchlists map[string]*models.Watchlist
	mu         sync.RWMutex
}

// NewMockWatchlistRepository creates a new instance of MockWatchlistRepository.
func NewMockWatchlistRepository() *MockWatchlistRepository {
	return &MockWatchlistRepository{
		watchlists: make(map[string]*models.Watchlist),
	}
}

// GetByWatchlistID returns a copy of the stored watchlist.
func (r *MockWatchlistRepository) GetByWatchlistID(_ context.Context, watchlistID string) (*models.Watchlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.watchlists[watchlistID]
	if !ok {
		return nil, fmt.Errorf("watchlist %s: %w", watchlistID, errs.ErrNotFound)
	}
	return w.Clone(), nil
}

// Create adds a new watchlist.
func (r *MockWatchlistRepository) Create(_ context.Context, watchlist *models.Watchlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.watchlists[watchlist.WatchlistID]; ok {
		return fmt.Errorf("watchlist %s: %w", watchlist.WatchlistID, errs.ErrAlreadyExists)
	}
	if watchlist.ID == "" {
		watchlist.ID = uuid.New().String()
	}
	if watchlist.Names == nil {
		watchlist.Names = []string{}
	}
	now := time.Now()
	watchlist.CreatedAt, watchlist.UpdatedAt = now, now
	r.watchlists[watchlist.WatchlistID] = watchlist.Clone()
	return nil
}

// Update mutates the stored watchlist under the lock.
func (r *MockWatchlistRepository) Update(_ context.Context, watchlistID string, mutate WatchlistMutator) (*models.Watchlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.watchlists[watchlistID]
	if !ok {
		return nil, fmt.Errorf("watchlist %s: %w", watchlistID, errs.ErrNotFound)
	}
	next := stored.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if next.Names == nil {
		next.Names = []string{}
	}
	next.Version++
	next.UpdatedAt = time.Now()
	r.watchlists[watchlistID] = next
	return next.Clone(), nil
}
