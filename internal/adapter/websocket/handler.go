package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/scorecast/internal/broadcast"
	"github.com/pscheid92/scorecast/internal/domain"
	"github.com/pscheid92/scorecast/internal/platform/correlation"
	"github.com/pscheid92/scorecast/internal/platform/logging"
)

const (
	maxMessageSize    = 64 << 10
	unregisterTimeout = 5 * time.Second
)

// Hub is the part of broadcast.Hub a live connection talks to.
type Hub interface {
	Register(ctx context.Context, c broadcast.Client) error
	Unregister(ctx context.Context, c broadcast.Client) error
	UpdateTeam(ctx context.Context, id domain.TeamID, patch domain.TeamPatch) (domain.Team, error)
}

// Handler upgrades requests to the live connection shared by overlays and control
// panels. Every connection receives the full document first and then every change;
// controllers may send update_team frames on the same connection.
type Handler struct {
	hub      Hub
	clock    clockwork.Clock
	upgrader websocket.Upgrader
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(hub Hub, origins *OriginPolicy, clock clockwork.Clock) *Handler {
	return &Handler{
		hub:   hub,
		clock: clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     origins.CheckOrigin,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		slog.WarnContext(r.Context(), "WebSocket upgrade failed", "error", err)
		return
	}

	connectionID := uuid.NewString()
	conn.SetReadLimit(maxMessageSize)

	s := &session{
		ctx:    correlation.WithID(context.WithoutCancel(r.Context()), connectionID),
		log:    logging.WithConnection(connectionID),
		client: broadcast.NewConnClient(connectionID, conn, h.clock),
	}

	if err := h.hub.Register(s.ctx, s.client); err != nil {
		s.log.WarnContext(s.ctx, "Live connection rejected", "error", err)
		_ = s.client.Close()
		return
	}
	s.log.DebugContext(s.ctx, "Live connection opened", "remote_addr", r.RemoteAddr)

	defer h.unregister(s)
	h.readLoop(s, conn)
}

// session is the per-connection state of the read loop.
type session struct {
	ctx    context.Context
	log    *slog.Logger
	client broadcast.Client
}

func (h *Handler) unregister(s *session) {
	ctx, cancel := context.WithTimeout(s.ctx, unregisterTimeout)
	defer cancel()
	if err := h.hub.Unregister(ctx, s.client); err != nil && !errors.Is(err, domain.ErrHubStopped) {
		s.log.WarnContext(ctx, "Failed to unregister live connection", "error", err)
	}
}

func (h *Handler) readLoop(s *session, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return
		}
		h.handleFrame(s, data)
	}
}

func (h *Handler) handleFrame(s *session, data []byte) {
	var msg domain.InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.DebugContext(s.ctx, "Malformed frame", "error", err)
		s.reply("malformed message: expected a JSON object")
		return
	}

	switch msg.Type {
	case domain.MessageUpdateTeam:
		h.handleUpdateTeam(s, msg)
	default:
		s.log.DebugContext(s.ctx, "Ignoring frame", "type", msg.Type)
	}
}

func (h *Handler) handleUpdateTeam(s *session, msg domain.InboundMessage) {
	id, err := domain.ParseTeamID(msg.Team)
	if err != nil {
		s.reply(err.Error())
		return
	}

	patch, err := domain.DecodeTeamPatch(msg.Data)
	if err != nil {
		s.reply(err.Error())
		return
	}

	if _, err := h.hub.UpdateTeam(s.ctx, id, patch); err != nil {
		s.log.InfoContext(s.ctx, "Team update rejected", "team", id, "error", err)
		s.reply(err.Error())
	}
}

// reply sends an error frame to this connection only.
func (s *session) reply(message string) {
	payload, err := broadcast.EncodeError(message)
	if err != nil {
		s.log.ErrorContext(s.ctx, "Failed to encode error reply", "error", err)
		return
	}
	if err := s.client.Send(payload); err != nil {
		s.log.DebugContext(s.ctx, "Failed to send error reply", "error", err)
	}
}

func (s *session) logReadError(err error) {
	var netErr net.Error
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		s.log.DebugContext(s.ctx, "Live connection closed")
	case errors.As(err, &netErr) && netErr.Timeout():
		s.log.WarnContext(s.ctx, "Live connection timed out")
	case errors.Is(err, net.ErrClosed):
		s.log.DebugContext(s.ctx, "Live connection closed by server")
	default:
		s.log.WarnContext(s.ctx, "Live connection read failed", "error", err)
	}
}
