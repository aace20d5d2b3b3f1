package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8000"`
	AppURL    string `env:"APP_URL" default:"http://localhost:8000"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	SnapshotPath     string `env:"SNAPSHOT_PATH" default:"data/overlay_data.json"`
	RedisURL         string `env:"REDIS_URL"`
	RedisSnapshotKey string `env:"REDIS_SNAPSHOT_KEY" default:"scorecast:snapshot"`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"1000"`

	UpdateRateLimit float64 `env:"UPDATE_RATE_LIMIT" default:"10"`
	UpdateRateBurst int     `env:"UPDATE_RATE_BURST" default:"20"`
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"PORT":          cfg.Port,
		"APP_URL":       cfg.AppURL,
		"SNAPSHOT_PATH": cfg.SnapshotPath,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	switch cfg.AppEnv {
	case "development", "production":
	default:
		return fmt.Errorf("APP_ENV must be development or production, got %q", cfg.AppEnv)
	}

	if u, err := url.Parse(cfg.AppURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("APP_URL must be an absolute URL, got %q", cfg.AppURL)
	}

	if cfg.RedisURL != "" && cfg.RedisSnapshotKey == "" {
		return errors.New("REDIS_SNAPSHOT_KEY is required when REDIS_URL is set")
	}

	if cfg.MaxWebSocketConnections < 1 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS must be at least 1")
	}
	if cfg.UpdateRateLimit <= 0 || cfg.UpdateRateBurst < 1 {
		return errors.New("UPDATE_RATE_LIMIT must be positive and UPDATE_RATE_BURST at least 1")
	}

	return nil
}
