package repositories

import (
	"context"

	"growup/internal/models"
)

// WatchlistMutator edits a watchlist in place. Returning an error aborts the
// update and nothing is written.
type WatchlistMutator func(w *models.Watchlist) error

// WatchlistRepository defines the interface for watchlist data access.
type WatchlistRepository interface {
	GetByWatchlistID(ctx context.Context, watchlistID string) (*models.Watchlist, error)
	// Create inserts a new document. It returns errs.ErrAlreadyExists when a
	// document with the same WatchlistID is already stored.
	Create(ctx context.Context, watchlist *models.Watchlist) error
	// Update applies mutate to the current document and writes it back only if
	// nobody else changed it in between. Implementations retry a bounded number
	// of times and return errs.ErrVersionConflict when they give up.
	Update(ctx context.Context, watchlistID string, mutate WatchlistMutator) (*models.Watchlist, error)
}
