package services

import (
	"context"
	"errors"
	"strings"

	"growup/internal/errs"
	"growup/internal/models"
	"growup/internal/repositories"
)

// WatchlistService handles business logic related to watchlists.
type WatchlistService struct {
	repo repositories.WatchlistRepository
	notifier
}

// NewWatchlistService creates a new WatchlistService.
func NewWatchlistService(repo repositories.WatchlistRepository, opts ...Option) *WatchlistService {
	return &WatchlistService{
		repo:     repo,
		notifier: newNotifier("watchlist_service", opts),
	}
}

func watchlistCacheKey(watchlistID string) string {
	return "watchlist:" + watchlistID
}

// GetWatchlist returns the watchlist document with its symbols in stored order.
func (s *WatchlistService) GetWatchlist(ctx context.Context, watchlistID string) (*models.Watchlist, error) {
	if strings.TrimSpace(watchlistID) == "" {
		return nil, errs.Validation("WatchlistId is required")
	}

	var cached models.Watchlist
	if s.cached(ctx, watchlistCacheKey(watchlistID), &cached) {
		return &cached, nil
	}

	watchlist, err := s.repo.GetByWatchlistID(ctx, watchlistID)
	if err != nil {
		return nil, translateStoreError(err, "Watchlist not found", "Failed to load watchlist")
	}
	s.fill(ctx, watchlistCacheKey(watchlistID), watchlist)
	return watchlist, nil
}

// AddStock appends symbol to the watchlist, creating the watchlist on first use.
// created reports whether a new document was stored.
func (s *WatchlistService) AddStock(ctx context.Context, watchlistID, symbol string) (watchlist *models.Watchlist, created bool, err error) {
	symbol = strings.TrimSpace(symbol)
	if strings.TrimSpace(watchlistID) == "" || symbol == "" {
		return nil, false, errs.Validation("WatchlistId and stockName are required")
	}

	appendSymbol := func(w *models.Watchlist) error {
		if w.Contains(symbol) {
			return errs.Conflict("Stock already in watchlist")
		}
		w.Names = append(w.Names, symbol)
		return nil
	}

	for attempt := 1; ; attempt++ {
		watchlist, err = s.repo.Update(ctx, watchlistID, appendSymbol)
		if err == nil {
			break
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, false, translateStoreError(err, "Watchlist not found", "Failed to update watchlist")
		}

		fresh := &models.Watchlist{WatchlistID: watchlistID, Names: []string{symbol}}
		err = s.repo.Create(ctx, fresh)
		if err == nil {
			watchlist, created = fresh, true
			break
		}
		// Someone else created it first: apply the append to their document.
		if !errors.Is(err, errs.ErrAlreadyExists) || attempt >= maxCreateAttempts {
			return nil, false, translateStoreError(err, "Watchlist not found", "Failed to create watchlist")
		}
		s.log.Debug().Str("watchlist_id", watchlistID).Int("attempt", attempt).Msg("lost watchlist create race, retrying as update")
	}

	s.store(ctx, watchlistCacheKey(watchlistID), watchlist)
	s.publish(EventWatchlistUpdated, watchlistID, map[string]any{
		"watchlist_id": watchlistID,
		"action":       "added",
		"symbol":       symbol,
		"created":      created,
	})
	return watchlist, created, nil
}

// RemoveStock removes every occurrence of symbol from the watchlist.
func (s *WatchlistService) RemoveStock(ctx context.Context, watchlistID, symbol string) (*models.Watchlist, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, errs.Validation("stockName is required")
	}
	if strings.TrimSpace(watchlistID) == "" {
		return nil, errs.Validation("Watchlist id is required")
	}

	watchlist, err := s.repo.Update(ctx, watchlistID, func(w *models.Watchlist) error {
		if !w.Contains(symbol) {
			return errs.NotFound("Stock not found in watchlist")
		}
		kept := w.Names[:0]
		for _, name := range w.Names {
			if name != symbol {
				kept = append(kept, name)
			}
		}
		w.Names = kept
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, "Watchlist not found", "Failed to update watchlist")
	}

	s.store(ctx, watchlistCacheKey(watchlistID), watchlist)
	s.publish(EventWatchlistUpdated, watchlistID, map[string]any{
		"watchlist_id": watchlistID,
		"action":       "removed",
		"symbol":       symbol,
	})
	return watchlist, nil
}
