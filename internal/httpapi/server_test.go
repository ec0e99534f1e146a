package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dmetrikx/goWrestleBot/internal/metrics"
	"github.com/Dmetrikx/goWrestleBot/internal/storage"
)

type fakeSessions struct{ active, pending int }

func (f fakeSessions) Counts() (int, int) { return f.active, f.pending }

type fakeLedger struct {
	accounts []*storage.Account
	err      error
	gotLimit int
}

func (f *fakeLedger) Leaderboard(_ context.Context, n int) ([]*storage.Account, error) {
	f.gotLimit = n
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts[:min(n, len(f.accounts))], nil
}

func newTestRouter(ledger *fakeLedger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Deps{
		Sessions:  fakeSessions{active: 2, pending: 1},
		Ledger:    ledger,
		Metrics:   metrics.New().Handler(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		StartedAt: time.Now().Add(-time.Minute),
		Version:   "test",
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(&fakeLedger{}), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 2.0, body["active_matches"])
	assert.Equal(t, 1.0, body["pending_matches"])
	assert.GreaterOrEqual(t, body["uptime_seconds"], 60.0)
}

func TestMetricsRoute(t *testing.T) {
	rec := get(t, newTestRouter(&fakeLedger{}), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wrestlebot_active_matches")
}

func TestLeaderboard(t *testing.T) {
	ledger := &fakeLedger{accounts: []*storage.Account{
		{UserID: "a", Balance: 5000, Wins: 3},
		{UserID: "b", Balance: 1200},
	}}
	router := newTestRouter(ledger)

	rec := get(t, router, "/leaderboard?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ledger.gotLimit)

	var body struct {
		Leaderboard []struct {
			Rank    int    `json:"rank"`
			UserID  string `json:"user_id"`
			Balance int64  `json:"balance"`
		} `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Leaderboard, 1)
	assert.Equal(t, "a", body.Leaderboard[0].UserID)
	assert.Equal(t, int64(5000), body.Leaderboard[0].Balance)

	get(t, router, "/leaderboard")
	assert.Equal(t, defaultLeaderboardLimit, ledger.gotLimit)

	get(t, router, "/leaderboard?limit=1000")
	assert.Equal(t, maxLeaderboardLimit, ledger.gotLimit)
}

func TestLeaderboardErrors(t *testing.T) {
	rec := get(t, newTestRouter(&fakeLedger{}), "/leaderboard?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, newTestRouter(&fakeLedger{err: errors.New("down")}), "/leaderboard")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(Deps{
		Sessions:     fakeSessions{},
		Ledger:       &fakeLedger{},
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		AllowOrigins: []string{"https://dash.example"},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dash.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://dash.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
