package handlers

import (
	"time"

	"growup/internal/middleware"
	"growup/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// HoldingHandler handles HTTP requests for holdings.
type HoldingHandler struct {
	service *services.HoldingService
	timeout time.Duration
	log     zerolog.Logger
}

// NewHoldingHandler creates a new HoldingHandler.
func NewHoldingHandler(service *services.HoldingService, timeout time.Duration, log zerolog.Logger) *HoldingHandler {
	return &HoldingHandler{
		service: service,
		timeout: timeout,
		log:     log.With().Str("handler", "holding").Logger(),
	}
}

// RegisterRoutes registers the holding routes under /holding. auth must
// include middleware.AuthRequired.
func (h *HoldingHandler) RegisterRoutes(router fiber.Router, auth ...fiber.Handler) {
	holding := router.Group("/holding", auth...)
	holding.Get("/getholding/:HoldingId?", h.HandleGetHoldings)
	holding.Post("/addholding", h.HandleAddHolding)
	holding.Delete("/removeholding", h.HandleRemoveHolding)
}

func ownsHolding(c *fiber.Ctx, holdingID string) bool {
	return holdingID == "" || holdingID == middleware.HoldingID(c)
}

// HandleGetHoldings returns the positions of the holding named in the path.
func (h *HoldingHandler) HandleGetHoldings(c *fiber.Ctx) error {
	holdingID := c.Params("HoldingId")
	if !ownsHolding(c, holdingID) {
		return respondError(c, h.log, forbidden("Access to these holdings is forbidden"))
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	holding, err := h.service.GetHoldings(ctx, holdingID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"msg":      "Holdings retrieved successfully",
		"holdings": holding.Holdings,
	})
}

// AddHoldingRequest represents the request body for recording a purchase.
type AddHoldingRequest struct {
	HoldingID string  `json:"HoldingId"`
	Name      string  `json:"Name"`
	Symbol    string  `json:"Symbol"`
	Quantity  float64 `json:"Quantity"`
	Price     float64 `json:"Price"`
}

// HandleAddHolding records a purchase, creating the holding on first use.
func (h *HoldingHandler) HandleAddHolding(c *fiber.Ctx) error {
	var req AddHoldingRequest
	if err := c.BodyParser(&req); err != nil {
		return respondInvalidBody(c, err)
	}
	if !ownsHolding(c, req.HoldingID) {
		return respondError(c, h.log, forbidden("Access to these holdings is forbidden"))
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	holding, created, err := h.service.AddPosition(ctx, req.HoldingID, services.PositionInput{
		Name:     req.Name,
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	if created {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"msg":     "Holding created successfully",
			"holding": holding,
		})
	}
	return c.JSON(fiber.Map{
		"msg":     "Holding added successfully",
		"holding": holding,
	})
}

// RemoveHoldingRequest represents the request body for selling a position.
// A zero or omitted Quantity sells the whole position.
type RemoveHoldingRequest struct {
	HoldingID string  `json:"HoldingId"`
	Symbol    string  `json:"Symbol"`
	Quantity  float64 `json:"Quantity"`
}

// HandleRemoveHolding sells part or all of a position.
func (h *HoldingHandler) HandleRemoveHolding(c *fiber.Ctx) error {
	var req RemoveHoldingRequest
	if err := c.BodyParser(&req); err != nil {
		return respondInvalidBody(c, err)
	}
	if !ownsHolding(c, req.HoldingID) {
		return respondError(c, h.log, forbidden("Access to these holdings is forbidden"))
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	holding, err := h.service.RemovePosition(ctx, req.HoldingID, req.Symbol, req.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"msg":     "Holding removed successfully",
		"holding": holding,
	})
}
