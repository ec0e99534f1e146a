package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Commands.WithLabelValues("chall", "ok").Inc()
	m.Commands.WithLabelValues("chall", "ok").Inc()
	m.CoinsPaid.WithLabelValues("match").Add(600)
	m.SetSessions(3, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("chall", "ok")))
	assert.Equal(t, 600.0, testutil.ToFloat64(m.CoinsPaid.WithLabelValues("match")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveMatches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PendingMatches))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.TurnTimeouts.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wrestlebot_turn_timeouts_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
