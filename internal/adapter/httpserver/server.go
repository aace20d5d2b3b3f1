package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/scorecast/internal/adapter/metrics"
	"github.com/pscheid92/scorecast/internal/domain"
	"github.com/pscheid92/scorecast/internal/platform/config"
	"github.com/pscheid92/scorecast/web"
)

// hubService is the part of broadcast.Hub the HTTP handlers need.
type hubService interface {
	Document(ctx context.Context) (domain.Document, error)
	BulkUpdate(ctx context.Context, patch domain.DocumentPatch) (domain.Document, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	hub hubService

	websocketHandler http.Handler
	metricsHandler   http.Handler
	httpMetrics      *metrics.HTTPMetrics

	templates    *template.Template
	healthChecks []HealthCheck
	startTime    time.Time
}

// Deps bundles the collaborators of the HTTP server. Nil handlers leave their route out.
type Deps struct {
	Hub              hubService
	WebsocketHandler http.Handler
	MetricsHandler   http.Handler
	HTTPMetrics      *metrics.HTTPMetrics
	HealthChecks     []HealthCheck
}

func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:             e,
		config:           cfg,
		hub:              deps.Hub,
		websocketHandler: deps.WebsocketHandler,
		metricsHandler:   deps.MetricsHandler,
		httpMetrics:      deps.HTTPMetrics,
		templates:        templates,
		healthChecks:     deps.HealthChecks,
		startTime:        time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port, "app_url", s.config.AppURL)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the full middleware chain and router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
