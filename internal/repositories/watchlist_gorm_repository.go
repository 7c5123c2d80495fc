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

// GORMWatchlistRepository is a GORM implementation of WatchlistRepository.
// Each watchlist is one row; Names is stored as a JSON array and guarded by
// the version column.
type GORMWatchlistRepository struct {
	db *gorm.DB
}

// NewGORMWatchlistRepository creates a new instance of GORMWatchlistRepository.
func NewGORMWatchlistRepository(db *gorm.DB) *GORMWatchlistRepository {
	return &GORMWatchlistRepository{
		db: db,
	}
}

// GetByWatchlistID retrieves a watchlist by its application-level id.
func (r *GORMWatchlistRepository) GetByWatchlistID(ctx context.Context, watchlistID string) (*models.Watchlist, error) {
	var watchlist models.Watchlist
	if err := r.db.WithContext(ctx).First(&watchlist, "watchlist_id = ?", watchlistID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("watchlist %s: %w", watchlistID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get watchlist %s: %w", watchlistID, err)
	}
	if watchlist.Names == nil {
		watchlist.Names = []string{}
	}
	return &watchlist, nil
}

// Create inserts a new watchlist.
func (r *GORMWatchlistRepository) Create(ctx context.Context, watchlist *models.Watchlist) error {
	if watchlist.ID == "" {
		watchlist.ID = uuid.New().String()
	}
	if watchlist.Names == nil {
		watchlist.Names = []string{}
	}
	if err := r.db.WithContext(ctx).Create(watchlist).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("watchlist %s: %w", watchlist.WatchlistID, errs.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create watchlist: %w", err)
	}
	return nil
}

// Update performs a compare-and-swap on the version column.
func (r *GORMWatchlistRepository) Update(ctx context.Context, watchlistID string, mutate WatchlistMutator) (*models.Watchlist, error) {
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

		res := r.db.WithContext(ctx).
			Model(current).
			Select("names", "version", "updated_at").
			Where("version = ?", seen).
			Updates(current)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update watchlist %s: %w", watchlistID, res.Error)
		}
		if res.RowsAffected == 1 {
			return current, nil
		}
	}
	return nil, fmt.Errorf("watchlist %s: %w", watchlistID, errs.ErrVersionConflict)
}
