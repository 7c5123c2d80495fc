package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growup/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:         ":0",
		CORSOrigins:     "*",
		RequestTimeout:  5 * time.Second,
		StoreDriver:     config.DriverMemory,
		JWTSecret:       "test_jwt_secret",
		TokenTTL:        time.Hour,
		StartingBalance: 10000,
	}
}

func doJSON(t *testing.T, a *application, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestNewApplication_MemoryStore(t *testing.T) {
	ctx := context.Background()
	a, err := newApplication(ctx, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.shutdown(ctx)) }()

	status, body := doJSON(t, a, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, body = doJSON(t, a, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["store"])
	assert.Equal(t, false, body["cache"])
	assert.Equal(t, false, body["events"])

	status, body = doJSON(t, a, http.MethodGet, "/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["kind"])
}

func TestNewApplication_EndToEnd(t *testing.T) {
	ctx := context.Background()
	a, err := newApplication(ctx, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer a.shutdown(ctx)

	status, body := doJSON(t, a, http.MethodPost, "/register", "", map[string]any{
		"Name":     "Asha Rao",
		"Email":    "asha@example.com",
		"Password": "secret",
		"MobileNo": 9123456789,
	})
	require.Equal(t, http.StatusOK, status, body)
	token := body["token"].(string)
	user := body["user"].(map[string]any)
	watchlistID := user["WatchlistId"].(string)
	assert.NotContains(t, user, "Password")

	status, _ = doJSON(t, a, http.MethodGet, "/stocks/getwatchlist/"+watchlistID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, a, http.MethodPost, "/stocks/addwatchlist", token, map[string]string{
		"WatchlistId": watchlistID, "stockName": "INFY",
	})
	assert.Equal(t, http.StatusCreated, status)

	status, body = doJSON(t, a, http.MethodGet, "/stocks/getwatchlist/"+watchlistID, token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"INFY"}, body["watchlist"].(map[string]any)["Names"])

	status, body = doJSON(t, a, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "asha@example.com", body["user"].(map[string]any)["Email"])
}

func TestNewApplication_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.StoreDriver = "cassandra"
	_, err := newApplication(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
