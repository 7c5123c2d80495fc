package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"growup/internal/errs"
	"growup/internal/models"
	"growup/internal/repositories"
)

const holdingNotFoundMsg = "No holdings found for this user"

// PositionInput describes a purchase added to a holding.
type PositionInput struct {
	Name     string
	Symbol   string
	Quantity float64
	Price    float64
}

// HoldingService handles business logic related to holdings.
type HoldingService struct {
	repo repositories.HoldingRepository
	now  func() time.Time
	notifier
}

// NewHoldingService creates a new HoldingService.
func NewHoldingService(repo repositories.HoldingRepository, opts ...Option) *HoldingService {
	return &HoldingService{
		repo:     repo,
		now:      func() time.Time { return time.Now().UTC() },
		notifier: newNotifier("holding_service", opts),
	}
}

func holdingCacheKey(holdingID string) string {
	return "holding:" + holdingID
}

// GetHoldings returns the holding document of holdingID.
func (s *HoldingService) GetHoldings(ctx context.Context, holdingID string) (*models.Holding, error) {
	if strings.TrimSpace(holdingID) == "" {
		return nil, errs.Validation("HoldingId is required")
	}

	var cached models.Holding
	if s.cached(ctx, holdingCacheKey(holdingID), &cached) {
		return &cached, nil
	}

	holding, err := s.repo.GetByHoldingID(ctx, holdingID)
	if err != nil {
		return nil, translateStoreError(err, holdingNotFoundMsg, "Failed to load holdings")
	}
	s.fill(ctx, holdingCacheKey(holdingID), holding)
	return holding, nil
}

// AddPosition records a purchase. A repeat purchase of a held symbol adds to
// its quantity and replaces its price and date.
func (s *HoldingService) AddPosition(ctx context.Context, holdingID string, in PositionInput) (holding *models.Holding, created bool, err error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Symbol = strings.TrimSpace(in.Symbol)
	if strings.TrimSpace(holdingID) == "" || in.Name == "" || in.Symbol == "" {
		return nil, false, errs.Validation("Please enter all fields")
	}
	if in.Quantity <= 0 || in.Price <= 0 {
		return nil, false, errs.Validation("Quantity and Price must be greater than zero")
	}

	now := s.now()
	addPosition := func(h *models.Holding) error {
		idx := h.IndexOf(in.Symbol)
		if idx < 0 {
			h.Holdings = append(h.Holdings, models.Position{
				Name:     in.Name,
				Symbol:   in.Symbol,
				Quantity: in.Quantity,
				Price:    in.Price,
				Date:     now,
			})
			return nil
		}
		p := &h.Holdings[idx]
		p.Quantity = decimal.NewFromFloat(p.Quantity).Add(decimal.NewFromFloat(in.Quantity)).InexactFloat64()
		p.Price = in.Price
		p.Date = now
		return nil
	}

	for attempt := 1; ; attempt++ {
		holding, err = s.repo.Update(ctx, holdingID, addPosition)
		if err == nil {
			break
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return nil, false, translateStoreError(err, holdingNotFoundMsg, "Failed to update holdings")
		}

		fresh := &models.Holding{HoldingID: holdingID}
		if err := addPosition(fresh); err != nil {
			return nil, false, err
		}
		err = s.repo.Create(ctx, fresh)
		if err == nil {
			holding, created = fresh, true
			break
		}
		if !errors.Is(err, errs.ErrAlreadyExists) || attempt >= maxCreateAttempts {
			return nil, false, translateStoreError(err, holdingNotFoundMsg, "Failed to create holdings")
		}
		s.log.Debug().Str("holding_id", holdingID).Int("attempt", attempt).Msg("lost holding create race, retrying as update")
	}

	s.store(ctx, holdingCacheKey(holdingID), holding)
	s.publish(EventHoldingUpdated, holdingID, map[string]any{
		"holding_id": holdingID,
		"action":     "added",
		"symbol":     in.Symbol,
		"quantity":   in.Quantity,
		"price":      in.Price,
		"created":    created,
	})
	return holding, created, nil
}

// RemovePosition sells quantity of symbol. A zero quantity disposes of the
// whole position; selling more than is held is rejected.
func (s *HoldingService) RemovePosition(ctx context.Context, holdingID, symbol string, quantity float64) (*models.Holding, error) {
	symbol = strings.TrimSpace(symbol)
	if strings.TrimSpace(holdingID) == "" || symbol == "" {
		return nil, errs.Validation("HoldingId and Symbol are required")
	}
	if quantity < 0 {
		return nil, errs.Validation("Quantity cannot be negative")
	}

	holding, err := s.repo.Update(ctx, holdingID, func(h *models.Holding) error {
		idx := h.IndexOf(symbol)
		if idx < 0 {
			return errs.NotFound("Stock not found in holdings")
		}
		held := decimal.NewFromFloat(h.Holdings[idx].Quantity)
		sold := decimal.NewFromFloat(quantity)
		if quantity == 0 {
			sold = held
		}
		switch sold.Cmp(held) {
		case 1:
			return errs.Conflict("insufficient quantity")
		case 0:
			h.Holdings = append(h.Holdings[:idx], h.Holdings[idx+1:]...)
		default:
			h.Holdings[idx].Quantity = held.Sub(sold).InexactFloat64()
		}
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, holdingNotFoundMsg, "Failed to update holdings")
	}

	s.store(ctx, holdingCacheKey(holdingID), holding)
	s.publish(EventHoldingUpdated, holdingID, map[string]any{
		"holding_id": holdingID,
		"action":     "removed",
		"symbol":     symbol,
		"quantity":   quantity,
	})
	return holding, nil
}
