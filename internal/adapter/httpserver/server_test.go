package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pscheid92/scorecast/internal/domain"
	"github.com/pscheid92/scorecast/internal/platform/config"
	"github.com/stretchr/testify/require"
)

type mockHub struct {
	mu      sync.Mutex
	doc     domain.Document
	patches []domain.DocumentPatch
	bulkErr error
	readErr error
}

func newMockHub() *mockHub {
	return &mockHub{doc: domain.DefaultDocument()}
}

func (m *mockHub) Document(context.Context) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return domain.Document{}, m.readErr
	}
	return m.doc.Clone(), nil
}

func (m *mockHub) BulkUpdate(_ context.Context, patch domain.DocumentPatch) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patches = append(m.patches, patch)
	if m.bulkErr != nil {
		return domain.Document{}, m.bulkErr
	}
	for key, raw := range patch {
		if err := m.doc.SetField(key, raw); err != nil {
			return domain.Document{}, err
		}
	}
	return m.doc.Clone(), nil
}

func (m *mockHub) received() []domain.DocumentPatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DocumentPatch(nil), m.patches...)
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:          "development",
		Port:            "0",
		AppURL:          "http://localhost:8000",
		UpdateRateLimit: 100,
		UpdateRateBurst: 100,
	}
}

func newTestServer(t *testing.T, hub hubService, opts ...func(*config.Config, *Deps)) *Server {
	t.Helper()

	cfg := testConfig()
	deps := Deps{Hub: hub}
	for _, opt := range opts {
		opt(cfg, &deps)
	}

	srv, err := NewServer(cfg, deps)
	require.NoError(t, err)
	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*config.Config, *Deps) {
	return func(_ *config.Config, d *Deps) {
		d.HealthChecks = checks
	}
}

func withRateLimit(limit float64, burst int) func(*config.Config, *Deps) {
	return func(c *config.Config, _ *Deps) {
		c.UpdateRateLimit = limit
		c.UpdateRateBurst = burst
	}
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var errBoom = errors.New("boom")
