package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/scorecast/internal/adapter/metrics"
	"github.com/pscheid92/scorecast/internal/domain"
	"github.com/pscheid92/scorecast/internal/scoreboard"
)

const (
	commandBuffer = 256
	saveTimeout   = 5 * time.Second
	stopTimeout   = 10 * time.Second

	shutdownReason = "server shutting down"

	mutationTeam = "team"
	mutationBulk = "bulk"
)

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	client  Client
	replyCh chan error
}

type unregisterCmd struct {
	baseHubCmd
	client  Client
	replyCh chan struct{}
}

type updateTeamCmd struct {
	baseHubCmd
	team    domain.TeamID
	patch   domain.TeamPatch
	replyCh chan teamResult
}

type bulkUpdateCmd struct {
	baseHubCmd
	patch   domain.DocumentPatch
	replyCh chan documentResult
}

type documentCmd struct {
	baseHubCmd
	replyCh chan domain.Document
}

type clientCountCmd struct {
	baseHubCmd
	replyCh chan int
}

type stopCmd struct {
	baseHubCmd
}

type teamResult struct {
	team domain.Team
	err  error
}

type documentResult struct {
	doc domain.Document
	err error
}

// gracefulCloser is implemented by clients that can say goodbye before disconnecting.
type gracefulCloser interface {
	CloseGraceful(reason string)
}

// Config tunes a Hub. Zero values fall back to defaults.
type Config struct {
	// MaxClients caps attached connections; zero means unlimited.
	MaxClients int
	Clock      clockwork.Clock
	Metrics    *metrics.HubMetrics
}

// Hub serializes every state change and fan-out through one goroutine.
type Hub struct {
	cmdCh      chan hubCmd
	done       chan struct{}
	stopOnce   sync.Once
	clock      clockwork.Clock
	metrics    *metrics.HubMetrics
	store      *scoreboard.Store
	snapshots  domain.SnapshotStore
	registry   *Registry
	maxClients int
}

// NewHub starts a hub seeded with initial. Every accepted mutation is saved to snapshots
// before it is broadcast; snapshots may be nil to keep state in memory only.
func NewHub(initial domain.Document, snapshots domain.SnapshotStore, cfg Config) *Hub {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewHubMetrics(prometheus.NewRegistry())
	}

	h := &Hub{
		cmdCh:      make(chan hubCmd, commandBuffer),
		done:       make(chan struct{}),
		clock:      cfg.Clock,
		metrics:    cfg.Metrics,
		snapshots:  snapshots,
		registry:   NewRegistry(),
		maxClients: cfg.MaxClients,
	}

	var persist scoreboard.PersistFunc
	if snapshots != nil {
		persist = h.persist
	}
	h.store = scoreboard.NewStore(initial, persist)

	go h.run()
	return h
}

// Register sends the current document to c and then attaches it, so the full
// snapshot is always the first frame a client receives.
func (h *Hub) Register(ctx context.Context, c Client) error {
	replyCh := make(chan error, 1)
	if err := h.send(ctx, registerCmd{client: c, replyCh: replyCh}); err != nil {
		return err
	}
	return await(ctx, h.done, replyCh)
}

// Unregister detaches and closes c. Unregistering an unknown client only closes it.
func (h *Hub) Unregister(ctx context.Context, c Client) error {
	replyCh := make(chan struct{}, 1)
	if err := h.send(ctx, unregisterCmd{client: c, replyCh: replyCh}); err != nil {
		return err
	}
	_, err := awaitValue(ctx, h.done, replyCh)
	return err
}

// UpdateTeam merges patch into one team, saves, and broadcasts the updated team.
func (h *Hub) UpdateTeam(ctx context.Context, id domain.TeamID, patch domain.TeamPatch) (domain.Team, error) {
	replyCh := make(chan teamResult, 1)
	if err := h.send(ctx, updateTeamCmd{team: id, patch: patch, replyCh: replyCh}); err != nil {
		return domain.Team{}, err
	}
	res, err := awaitValue(ctx, h.done, replyCh)
	if err != nil {
		return domain.Team{}, err
	}
	return res.team, res.err
}

// BulkUpdate replaces the named top-level fields, saves, and broadcasts the full document.
func (h *Hub) BulkUpdate(ctx context.Context, patch domain.DocumentPatch) (domain.Document, error) {
	replyCh := make(chan documentResult, 1)
	if err := h.send(ctx, bulkUpdateCmd{patch: patch, replyCh: replyCh}); err != nil {
		return domain.Document{}, err
	}
	res, err := awaitValue(ctx, h.done, replyCh)
	if err != nil {
		return domain.Document{}, err
	}
	return res.doc, res.err
}

// Document returns a copy of the current state.
func (h *Hub) Document(ctx context.Context) (domain.Document, error) {
	replyCh := make(chan domain.Document, 1)
	if err := h.send(ctx, documentCmd{replyCh: replyCh}); err != nil {
		return domain.Document{}, err
	}
	return awaitValue(ctx, h.done, replyCh)
}

func (h *Hub) ClientCount(ctx context.Context) (int, error) {
	replyCh := make(chan int, 1)
	if err := h.send(ctx, clientCountCmd{replyCh: replyCh}); err != nil {
		return 0, err
	}
	return awaitValue(ctx, h.done, replyCh)
}

// Stop closes every client with a normal-closure frame and ends the actor.
// Blocks until the goroutine has exited or the stop timeout passes.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		select {
		case h.cmdCh <- stopCmd{}:
		case <-h.done:
			return
		}

		timeout := h.clock.NewTimer(stopTimeout)
		defer timeout.Stop()

		select {
		case <-h.done:
			slog.Info("Hub stopped gracefully")
		case <-timeout.Chan():
			slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
		}
	})
}

func (h *Hub) send(ctx context.Context, cmd hubCmd) error {
	select {
	case h.cmdCh <- cmd:
		return nil
	case <-h.done:
		return domain.ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await(ctx context.Context, done <-chan struct{}, replyCh <-chan error) error {
	err, waitErr := awaitValue(ctx, done, replyCh)
	if waitErr != nil {
		return waitErr
	}
	return err
}

func awaitValue[T any](ctx context.Context, done <-chan struct{}, replyCh <-chan T) (T, error) {
	var zero T
	select {
	case v := <-replyCh:
		return v, nil
	case <-done:
		// The reply may have raced with shutdown.
		select {
		case v := <-replyCh:
			return v, nil
		default:
			return zero, domain.ErrHubStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (h *Hub) run() {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAll()
		}
	}()

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			c.replyCh <- h.handleRegister(c.client)
		case unregisterCmd:
			h.handleUnregister(c.client)
			c.replyCh <- struct{}{}
		case updateTeamCmd:
			team, err := h.handleUpdateTeam(c.team, c.patch)
			c.replyCh <- teamResult{team: team, err: err}
		case bulkUpdateCmd:
			doc, err := h.handleBulkUpdate(c.patch)
			c.replyCh <- documentResult{doc: doc, err: err}
		case documentCmd:
			c.replyCh <- h.store.Document()
		case clientCountCmd:
			c.replyCh <- h.registry.Len()
		case stopCmd:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) handleRegister(c Client) error {
	if h.maxClients > 0 && h.registry.Len() >= h.maxClients {
		slog.Warn("Rejecting client, connection limit reached", "client_id", c.ID(), "max_clients", h.maxClients)
		return fmt.Errorf("%w: limit is %d", domain.ErrTooManyClients, h.maxClients)
	}

	if h.registry.Contains(c) {
		return fmt.Errorf("client %s already registered", c.ID())
	}

	payload, err := EncodeFullSync(h.store.Document())
	if err != nil {
		return err
	}
	if err := c.Send(payload); err != nil {
		return fmt.Errorf("send initial snapshot: %w", err)
	}
	h.registry.Add(c)

	h.metrics.ConnectedClients.Set(float64(h.registry.Len()))
	slog.Debug("Client registered", "client_id", c.ID(), "clients", h.registry.Len())
	return nil
}

func (h *Hub) handleUnregister(c Client) {
	if h.registry.Remove(c) {
		h.metrics.ConnectedClients.Set(float64(h.registry.Len()))
		slog.Debug("Client unregistered", "client_id", c.ID(), "clients", h.registry.Len())
	}
	_ = c.Close()
}

func (h *Hub) handleUpdateTeam(id domain.TeamID, patch domain.TeamPatch) (domain.Team, error) {
	team, err := h.store.MergeTeam(id, patch)
	h.recordMutation(mutationTeam, err)
	if err != nil {
		return domain.Team{}, err
	}

	payload, err := EncodeTeamUpdate(id, team)
	if err != nil {
		slog.Error("Failed to encode team update", "team", id, "error", err)
		return team, nil
	}
	h.broadcast(domain.MessageUpdateTeam, payload)
	return team, nil
}

func (h *Hub) handleBulkUpdate(patch domain.DocumentPatch) (domain.Document, error) {
	doc, err := h.store.ReplaceTopLevel(patch)
	h.recordMutation(mutationBulk, err)
	if err != nil {
		return domain.Document{}, err
	}

	payload, err := EncodeFullSync(doc)
	if err != nil {
		slog.Error("Failed to encode full sync", "error", err)
		return doc, nil
	}
	h.broadcast(domain.MessageInitialData, payload)
	return doc, nil
}

// broadcast pushes payload to every attached client. Clients that fail are removed
// after the loop; delivery to the rest continues.
func (h *Hub) broadcast(kind domain.MessageType, payload []byte) {
	var failed []Client
	for _, c := range h.registry.Snapshot() {
		if err := c.Send(payload); err != nil {
			h.logDrop(c, err)
			failed = append(failed, c)
		}
	}

	for _, c := range failed {
		h.registry.Remove(c)
		_ = c.Close()
	}

	h.metrics.MessagesBroadcast.WithLabelValues(string(kind)).Inc()
	h.metrics.ConnectedClients.Set(float64(h.registry.Len()))
}

func (h *Hub) logDrop(c Client, err error) {
	switch {
	case errors.Is(err, ErrClientClosed):
		slog.Debug("Dropping disconnected client", "client_id", c.ID())
		h.metrics.ClientsDropped.WithLabelValues(metrics.DropReasonClosed).Inc()
	case errors.Is(err, ErrClientSlow):
		slog.Warn("Dropping slow client", "client_id", c.ID())
		h.metrics.ClientsDropped.WithLabelValues(metrics.DropReasonSlow).Inc()
	default:
		slog.Error("Dropping client after unexpected send failure", "client_id", c.ID(), "error", err)
		h.metrics.ClientsDropped.WithLabelValues(metrics.DropReasonError).Inc()
	}
}

func (h *Hub) persist(doc domain.Document) error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	start := h.clock.Now()
	err := h.snapshots.Save(ctx, doc)
	h.metrics.SnapshotSave.Observe(h.clock.Since(start).Seconds())
	if err != nil {
		slog.Error("Failed to save snapshot, mutation discarded", "error", err)
	}
	return err
}

func (h *Hub) recordMutation(kind string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidPatch), errors.Is(err, domain.ErrInvalidTeamID):
		result = "rejected"
	default:
		result = "error"
	}
	h.metrics.Mutations.WithLabelValues(kind, result).Inc()
}

func (h *Hub) closeAll() {
	for _, c := range h.registry.Snapshot() {
		if gc, ok := c.(gracefulCloser); ok {
			gc.CloseGraceful(shutdownReason)
		} else {
			_ = c.Close()
		}
		h.registry.Remove(c)
	}
	h.metrics.ConnectedClients.Set(0)
}
