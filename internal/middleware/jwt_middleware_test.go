package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growup/internal/middleware"
	"growup/internal/repositories"
	"growup/internal/services"
)

const secret = "test_jwt_secret"

func setupApp() *fiber.App {
	authService := services.NewAuthService(repositories.NewMockUserRepository(), services.AuthConfig{JWTSecret: secret})
	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(authService, zerolog.Nop()), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":      middleware.UserID(c),
			"watchlist_id": middleware.WatchlistID(c),
			"holding_id":   middleware.HoldingID(c),
		})
	})
	return app
}

func sign(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func call(t *testing.T, app *fiber.App, authorization string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestAuthRequired_SetsClaims(t *testing.T) {
	app := setupApp()
	token := sign(t, secret, jwt.MapClaims{
		"user_id":      "u1",
		"watchlist_id": "wl1",
		"holding_id":   "hd1",
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	status, body := call(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, "wl1", body["watchlist_id"])
	assert.Equal(t, "hd1", body["holding_id"])
}

func TestAuthRequired_Rejects(t *testing.T) {
	app := setupApp()
	expired := sign(t, secret, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	forged := sign(t, "another-secret", jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(time.Hour).Unix()})

	tests := map[string]struct {
		header string
		msg    string
	}{
		"missing header": {"", "Authorization header is required"},
		"wrong scheme":   {"Basic abc", "Authorization header format must be 'Bearer <token>'"},
		"empty token":    {"Bearer ", "Authorization header format must be 'Bearer <token>'"},
		"expired":        {"Bearer " + expired, "Invalid or expired token"},
		"forged":         {"Bearer " + forged, "Invalid or expired token"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			status, body := call(t, app, tt.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.msg, body["msg"])
			assert.Equal(t, "unauthorized", body["kind"])
		})
	}
}
