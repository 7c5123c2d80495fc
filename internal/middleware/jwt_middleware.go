package middleware

import (
	"strings"

	"growup/internal/errs"
	"growup/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Keys under which AuthRequired stores the token claims in the Fiber context.
const (
	LocalUserID      = "user_id"
	LocalWatchlistID = "watchlist_id"
	LocalHoldingID   = "holding_id"
	LocalUsername    = "username"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "") {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		claims, err := authService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("JWT validation failed")
			return unauthorized(c, errs.MessageOf(err))
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalWatchlistID, claims.WatchlistID)
		c.Locals(LocalHoldingID, claims.HoldingID)
		c.Locals(LocalUsername, claims.Username)

		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"msg":  msg,
		"kind": errs.KindUnauthorized,
	})
}

// UserID returns the authenticated user id, or "" outside AuthRequired.
func UserID(c *fiber.Ctx) string { return local(c, LocalUserID) }

// WatchlistID returns the watchlist id carried by the caller's token.
func WatchlistID(c *fiber.Ctx) string { return local(c, LocalWatchlistID) }

// HoldingID returns the holding id carried by the caller's token.
func HoldingID(c *fiber.Ctx) string { return local(c, LocalHoldingID) }

func local(c *fiber.Ctx, key string) string {
	v, _ := c.Locals(key).(string)
	return v
}
