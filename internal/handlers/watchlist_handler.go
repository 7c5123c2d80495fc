package handlers

import (
	"time"

	"growup/internal/middleware"
	"growup/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// WatchlistHandler handles HTTP requests for watchlists.
type WatchlistHandler struct {
	service *services.WatchlistService
	timeout time.Duration
	log     zerolog.Logger
}

// NewWatchlistHandler creates a new WatchlistHandler.
func NewWatchlistHandler(service *services.WatchlistService, timeout time.Duration, log zerolog.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		service: service,
		timeout: timeout,
		log:     log.With().Str("handler", "watchlist").Logger(),
	}
}

// RegisterRoutes registers the watchlist routes under /stocks. auth must
// include middleware.AuthRequired.
func (h *WatchlistHandler) RegisterRoutes(router fiber.Router, auth ...fiber.Handler) {
	stocks := router.Group("/stocks", auth...)
	stocks.Get("/getwatchlist/:WatchlistId?", h.HandleGetWatchlist)
	stocks.Post("/addwatchlist", h.HandleAddToWatchlist)
	stocks.Delete("/remove", h.HandleRemoveFromWatchlist)
}

// ownsWatchlist reports whether the token of the caller carries watchlistID.
// Empty ids are left to the service to reject.
func ownsWatchlist(c *fiber.Ctx, watchlistID string) bool {
	return watchlistID == "" || watchlistID == middleware.WatchlistID(c)
}

// HandleGetWatchlist returns the watchlist named in the path.
func (h *WatchlistHandler) HandleGetWatchlist(c *fiber.Ctx) error {
	watchlistID := c.Params("WatchlistId")
	if !ownsWatchlist(c, watchlistID) {
		return respondError(c, h.log, forbidden("Access to this watchlist is forbidden"))
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	watchlist, err := h.service.GetWatchlist(ctx, watchlistID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"watchlist": watchlist})
}

// AddToWatchlistRequest represents the request body for adding a stock.
type AddToWatchlistRequest struct {
	WatchlistID string `json:"WatchlistId"`
	StockName   string `json:"stockName"`
}

// HandleAddToWatchlist adds a stock, creating the watchlist on first use.
func (h *WatchlistHandler) HandleAddToWatchlist(c *fiber.Ctx) error {
	var req AddToWatchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return respondInvalidBody(c, err)
	}
	if !ownsWatchlist(c, req.WatchlistID) {
		return respondError(c, h.log, forbidden("Access to this watchlist is forbidden"))
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	watchlist, created, err := h.service.AddStock(ctx, req.WatchlistID, req.StockName)
	if err != nil {
		return respondError(c, h.log, err)
	}

	if created {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"msg":       "Watchlist created and stock added",
			"watchlist": watchlist,
		})
	}
	return c.JSON(fiber.Map{
		"msg":       "Stock added to watchlist",
		"watchlist": watchlist,
	})
}

// RemoveFromWatchlistRequest represents the request body for removing a stock.
type RemoveFromWatchlistRequest struct {
	ID        string `json:"id"`
	StockName string `json:"stockName"`
}

// HandleRemoveFromWatchlist removes a stock from the watchlist.
func (h *WatchlistHandler) HandleRemoveFromWatchlist(c *fiber.Ctx) error {
	var req RemoveFromWatchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return respondInvalidBody(c, err)
	}
	if !ownsWatchlist(c, req.ID) {
		return respondError(c, h.log, forbidden("Access to this watchlist is forbidden"))
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	watchlist, err := h.service.RemoveStock(ctx, req.ID, req.StockName)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"msg":       "Stock removed from watchlist",
		"watchlist": watchlist,
	})
}
