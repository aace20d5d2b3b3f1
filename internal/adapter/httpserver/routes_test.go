package httpserver

import (
	"net/http"
	"testing"

	"github.com/pscheid92/scorecast/internal/adapter/metrics"
	"github.com/pscheid92/scorecast/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutes_OptionalHandlers(t *testing.T) {
	reg := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)
	websocketHit := false

	srv := newTestServer(t, newMockHub(), func(_ *config.Config, d *Deps) {
		d.MetricsHandler = metrics.Handler(reg)
		d.HTTPMetrics = httpMetrics
		d.WebsocketHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			websocketHit = true
			w.WriteHeader(http.StatusTeapot)
		})
	})

	rec := do(t, srv, http.MethodGet, "/ws", "")
	assert.True(t, websocketHit)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	do(t, srv, http.MethodGet, "/api/state", "")

	rec = do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scorecast_http_requests_total{method="GET",route="/api/state",status_code="200"} 1`)
}

func TestRoutes_WithoutOptionalHandlers(t *testing.T) {
	srv := newTestServer(t, newMockHub())

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/ws", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/metrics", "").Code)
}
