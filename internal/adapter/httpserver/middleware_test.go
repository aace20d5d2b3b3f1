package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/scorecast/internal/platform/correlation"
	apperrors "github.com/pscheid92/scorecast/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationMiddleware_ReusesRequestID(t *testing.T) {
	srv := newTestServer(t, newMockHub())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(correlation.Header, "req-1234")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "req-1234", rec.Header().Get(correlation.Header))
}

func TestCorrelationMiddleware_MintsRequestID(t *testing.T) {
	srv := newTestServer(t, newMockHub())

	rec := do(t, srv, http.MethodGet, "/health/live", "")

	assert.NotEmpty(t, rec.Header().Get(correlation.Header))
}

func TestCorrelationMiddleware_StoresIDInContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(correlation.Header, "abc")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	err := correlationMiddleware(func(c echo.Context) error {
		seen, _ = correlation.ID(c.Request().Context())
		return nil
	})(c)

	require.NoError(t, err)
	assert.Equal(t, "abc", seen)
}

func TestErrorHandlingMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errType string
	}{
		{"validation", apperrors.ValidationError("bad body"), http.StatusBadRequest, "validation"},
		{"unavailable", apperrors.UnavailableError("stopping", nil), http.StatusServiceUnavailable, "unavailable"},
		{"plain error becomes internal", errBoom, http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			err := ErrorHandlingMiddleware()(func(echo.Context) error { return tt.err })(c)

			require.NoError(t, err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.errType, decodeBody(t, rec)["type"])
		})
	}
}

func TestErrorHandlingMiddleware_PassesHTTPErrorThrough(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := ErrorHandlingMiddleware()(func(echo.Context) error { return echo.ErrNotFound })(c)

	assert.ErrorIs(t, err, echo.ErrNotFound)
}

func TestSecureHeaders(t *testing.T) {
	srv := newTestServer(t, newMockHub())

	rec := do(t, srv, http.MethodGet, "/overlay", "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "connect-src 'self' ws: wss:")
	assert.Empty(t, rec.Header().Get("X-Frame-Options"), "overlay must be embeddable")
}
