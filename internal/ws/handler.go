package ws

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pagecast/backend/internal/config"
	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/monitoring"
	"github.com/pagecast/backend/internal/session"
	"github.com/pagecast/backend/internal/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// connState tracks where one connection is in its lifecycle.
type connState int

const (
	stateConnecting connState = iota
	stateInitializing
	stateStreaming
	stateClosing
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateInitializing:
		return "initializing"
	case stateStreaming:
		return "streaming"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handler manages WebSocket connections. Each connection gets a dedicated
// browser session; inbound messages are parsed and dispatched in order,
// outbound frames flow through the connection's writer.
type Handler struct {
	sessions  *session.Manager
	streamCfg config.StreamConfig
	rateCfg   config.RateLimitConfig
	metrics   *monitoring.Metrics
	log       *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(sessions *session.Manager, streamCfg config.StreamConfig, rateCfg config.RateLimitConfig, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	return &Handler{
		sessions:  sessions,
		streamCfg: streamCfg,
		rateCfg:   rateCfg,
		metrics:   metrics,
		log:       log,
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConn(raw, h.streamCfg.BufferSize, h.log, h.metrics)
	go conn.writePump()
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	state := stateConnecting
	h.log.Info("client connected", zap.String("conn_id", conn.ID()))

	conn.SendStatus("Connected to browser relay")

	state = stateInitializing
	sess, err := h.sessions.Open(c.Request.Context(), conn.ID(), conn)
	if err != nil {
		// The connection stays open so the client sees the diagnostic;
		// input received from here on has no session to land in.
		h.log.Error("session initialization failed",
			zap.String("conn_id", conn.ID()), zap.Error(err))
		conn.SendStatus("Browser session could not be started. Input will be ignored.")
		state = stateClosing
	} else {
		state = stateStreaming
		defer h.sessions.Close(conn.ID())
	}

	var limiter *rate.Limiter
	if h.rateCfg.Enabled {
		limiter = rate.NewLimiter(rate.Limit(h.rateCfg.EventsPerSecond), h.rateCfg.Burst)
	}

	h.readLoop(c.Request.Context(), conn, sess, limiter, state)

	// The deferred manager.Close runs the actual teardown; idempotence makes
	// the double close on the init-failure path harmless.
	h.log.Info("client disconnected",
		zap.String("conn_id", conn.ID()),
		zap.String("last_state", state.String()))
}

// readLoop processes inbound messages strictly in order: one event completes
// (or fails) before the next is read, so no two driver operations for the
// same session ever run concurrently.
func (h *Handler) readLoop(ctx context.Context, conn *Conn, sess *session.Session, limiter *rate.Limiter, state connState) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("websocket read error", zap.String("conn_id", conn.ID()), zap.Error(err))
			}
			return
		}

		var msg types.ClientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			perr := &ProtocolError{Err: err}
			h.log.Debug("malformed message", zap.String("conn_id", conn.ID()), zap.Error(perr))
			conn.SendStatus("Could not parse message.")
			continue
		}

		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		h.handleMessage(ctx, conn, sess, limiter, state, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *Conn, sess *session.Session, limiter *rate.Limiter, state connState, msg types.ClientMessage) {
	switch msg.Type {
	case types.MsgPing:
		conn.sendPong()

	case types.MsgChat:
		h.handleChat(ctx, conn, sess, msg)

	case types.MsgClick, types.MsgMouseDown, types.MsgMouseUp, types.MsgMouseMove, types.MsgKeyPress:
		if state != stateStreaming || sess == nil {
			conn.SendStatus("session not found")
			return
		}
		if limiter != nil && !limiter.Allow() {
			h.log.Debug("input rate limit exceeded", zap.String("conn_id", conn.ID()))
			return
		}
		ev, err := ParseInput(msg)
		if err != nil {
			conn.SendStatus("Unrecognized input message.")
			return
		}
		h.dispatch(ctx, conn, sess, ev)

	default:
		perr := &ProtocolError{Type: msg.Type, Err: errUnknownType}
		h.log.Debug("unrecognized message", zap.String("conn_id", conn.ID()), zap.Error(perr))
		conn.SendStatus("Unrecognized message type: " + msg.Type)
	}
}

func (h *Handler) handleChat(ctx context.Context, conn *Conn, sess *session.Session, msg types.ClientMessage) {
	if msg.Content == nil {
		conn.SendStatus("Empty chat message.")
		return
	}

	if ev, ok := ParseChat(msg.Content.Text); ok {
		if sess == nil {
			conn.SendStatus("session not found")
			return
		}
		conn.SendStatus("Navigating to " + ev.Target)
		h.dispatch(ctx, conn, sess, ev)
		return
	}

	// Anything that is not a navigation command is acknowledged.
	conn.SendStatus("Received: " + msg.Content.Text)
}

// dispatch runs one input event against the session. Dispatch failures are
// reported as status messages; the session survives.
func (h *Handler) dispatch(ctx context.Context, conn *Conn, sess *session.Session, ev types.InputEvent) {
	if h.metrics != nil {
		h.metrics.RecordInputEvent(ev.Kind.String())
	}
	if err := sess.HandleInput(ctx, ev); err != nil {
		if h.metrics != nil {
			h.metrics.RecordInputError(ev.Kind.String())
		}
		h.log.Warn("input dispatch failed",
			zap.String("conn_id", conn.ID()),
			zap.String("kind", ev.Kind.String()),
			zap.Error(err))
		conn.SendStatus("Interaction failed: " + err.Error())
	}
}
