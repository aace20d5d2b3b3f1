package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHubMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHubMetrics(reg)

	m.ConnectedClients.Set(3)
	m.ClientsDropped.WithLabelValues(DropReasonSlow).Inc()
	m.Mutations.WithLabelValues("team", "ok").Inc()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ConnectedClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClientsDropped.WithLabelValues(DropReasonSlow)))

	count, err := testutil.GatherAndCount(reg, "scorecast_hub_mutations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewHubMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHubMetrics(reg)
	assert.Panics(t, func() { NewHubMetrics(reg) })
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/state", func(c echo.Context) error { return c.String(http.StatusOK, "{}") })
	e.GET("/health/live", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/api/state", "/api/state", "/health/live"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/state", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/health/live", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := NewRegistry()
	NewMirrorMetrics(reg).Writes.WithLabelValues("ok").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scorecast_snapshot_mirror_writes_total{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
