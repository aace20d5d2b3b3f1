package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/scorecast/internal/adapter/httpserver"
	"github.com/pscheid92/scorecast/internal/adapter/metrics"
	"github.com/pscheid92/scorecast/internal/adapter/redis"
	"github.com/pscheid92/scorecast/internal/adapter/snapshot"
	"github.com/pscheid92/scorecast/internal/adapter/websocket"
	"github.com/pscheid92/scorecast/internal/broadcast"
	"github.com/pscheid92/scorecast/internal/domain"
	"github.com/pscheid92/scorecast/internal/platform/config"
	"github.com/pscheid92/scorecast/internal/platform/logging"
	"github.com/pscheid92/scorecast/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func runGracefulShutdown(srv *httpserver.Server, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Live connections are hijacked and not tracked by the HTTP server,
		// so the hub closes them before the server drains plain requests.
		hub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// setupSnapshots builds the snapshot store: the file is always the source of truth,
// Redis only receives a copy when configured.
func setupSnapshots(cfg *config.Config, mirror *redis.SnapshotMirror) domain.SnapshotStore {
	file := snapshot.NewFileStore(cfg.SnapshotPath)
	if mirror == nil {
		return file
	}
	return snapshot.NewMirrored(file, mirror)
}

func loadDocument(ctx context.Context, store domain.SnapshotStore) domain.Document {
	doc, err := store.Load(ctx)
	if err != nil {
		slog.Error("Failed to load snapshot", "error", err)
		os.Exit(1)
	}
	return doc
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	reg := metrics.NewRegistry()
	hubMetrics := metrics.NewHubMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	var healthChecks []httpserver.HealthCheck

	var mirror *redis.SnapshotMirror
	if cfg.RedisURL != "" {
		redisClient := setupRedis(ctx, cfg)
		defer func() { _ = redisClient.Close() }()

		mirror = redis.NewSnapshotMirror(redisClient, cfg.RedisSnapshotKey, metrics.NewMirrorMetrics(reg))
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "redis", Check: mirror.Ping})
		slog.Info("Mirroring snapshots to Redis", "key", cfg.RedisSnapshotKey)
	}

	snapshots := setupSnapshots(cfg, mirror)
	doc := loadDocument(ctx, snapshots)
	slog.Info("Scoreboard loaded", "path", cfg.SnapshotPath, "scene", doc.Scene)

	hub := broadcast.NewHub(doc, snapshots, broadcast.Config{
		MaxClients: cfg.MaxWebSocketConnections,
		Clock:      clock,
		Metrics:    hubMetrics,
	})
	healthChecks = append([]httpserver.HealthCheck{{Name: "hub", Check: hubAlive(hub)}}, healthChecks...)

	wsHandler := websocket.NewHandler(hub, websocket.NewOriginPolicy(cfg.AppURL, cfg.IsDevelopment()), clock)

	srv, err := httpserver.NewServer(cfg, httpserver.Deps{
		Hub:              hub,
		WebsocketHandler: wsHandler,
		MetricsHandler:   metrics.Handler(reg),
		HTTPMetrics:      httpMetrics,
		HealthChecks:     healthChecks,
	})
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

func hubAlive(hub *broadcast.Hub) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := hub.ClientCount(ctx)
		return err
	}
}
