package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pscheid92/scorecast/internal/adapter/metrics"
	"github.com/pscheid92/scorecast/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	writeTimeout = 2 * time.Second

	breakerTripAfter = 5
	breakerOpenFor   = 30 * time.Second
)

// SnapshotMirror copies every snapshot to a single Redis key so other tooling can read
// the live scoreboard. Writes go through a circuit breaker: while Redis is down the
// mirror fails fast instead of stalling every mutation for the write timeout.
type SnapshotMirror struct {
	rdb     goredis.Cmdable
	key     string
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.MirrorMetrics
}

// NewSnapshotMirror creates a mirror writing to key. m may be nil.
func NewSnapshotMirror(rdb goredis.Cmdable, key string, m *metrics.MirrorMetrics) *SnapshotMirror {
	s := &SnapshotMirror{rdb: rdb, key: key, metrics: m}
	s.cb = gobreaker.NewCircuitBreaker(breakerSettings(breakerOpenFor, s.onStateChange))
	return s
}

func breakerSettings(openFor time.Duration, onChange func(name string, from, to gobreaker.State)) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "redis-snapshot-mirror",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		OnStateChange: onChange,
	}
}

func (s *SnapshotMirror) Key() string {
	return s.key
}

// State reports the circuit breaker state.
func (s *SnapshotMirror) State() gobreaker.State {
	return s.cb.State()
}

func (s *SnapshotMirror) Save(ctx context.Context, doc domain.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.cb.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()
		return nil, s.rdb.Set(ctx, s.key, data, 0).Err()
	})
	s.recordWrite(err)
	if err != nil {
		return fmt.Errorf("mirror snapshot to redis key %s: %w", s.key, err)
	}
	return nil
}

// Load reads the mirrored snapshot back for inspection. The server never starts from
// it; the file snapshot stays the source of truth and readiness goes through Ping.
func (s *SnapshotMirror) Load(ctx context.Context) (domain.Document, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Document{}, fmt.Errorf("redis key %s: %w", s.key, domain.ErrSnapshotNotFound)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("read redis key %s: %w", s.key, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("decode redis key %s: %w", s.key, err)
	}
	return doc, nil
}

// Ping checks connectivity. An open breaker counts as unhealthy without touching Redis.
func (s *SnapshotMirror) Ping(ctx context.Context) error {
	if s.cb.State() == gobreaker.StateOpen {
		return gobreaker.ErrOpenState
	}
	return s.rdb.Ping(ctx).Err()
}

func (s *SnapshotMirror) recordWrite(err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case err == nil:
		s.metrics.Writes.WithLabelValues("ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.metrics.Writes.WithLabelValues("rejected").Inc()
	default:
		s.metrics.Writes.WithLabelValues("error").Inc()
	}
}

func (s *SnapshotMirror) onStateChange(name string, from, to gobreaker.State) {
	slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
	if s.metrics != nil {
		s.metrics.BreakerState.Set(stateToFloat(to))
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
