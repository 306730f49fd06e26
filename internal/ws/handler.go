package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"classhub/internal/breakout"
	"classhub/internal/hub"
	"classhub/pkg/types"
)

// Config holds the transport tunables for the bidirectional channel.
type Config struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	SendBuffer      int
	EventsPerMinute int
}

// Handler upgrades HTTP requests to WebSocket connections and pumps
// inbound events through the dispatch table. Authorization is treated as
// already decided before a connection reaches this handler.
type Handler struct {
	log        *slog.Logger
	cfg        Config
	hub        *hub.Hub
	breakouts  *breakout.Orchestrator
	limiter    *RateLimiter
	upgrader   websocket.Upgrader
	handlers   map[string]handlerFunc
}

type handlerFunc func(c *Connection, data json.RawMessage) error

// NewHandler creates the WebSocket handler and its dispatch table.
func NewHandler(log *slog.Logger, cfg Config, h *hub.Hub, breakouts *breakout.Orchestrator) *Handler {
	handler := &Handler{
		log:       log,
		cfg:       cfg,
		hub:       h,
		breakouts: breakouts,
		limiter:   NewRateLimiter(cfg.EventsPerMinute),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin: func(r *http.Request) bool {
				// Origin policy is an upstream decision; the core admits
				// any connection that reached it.
				return true
			},
		},
	}
	handler.handlers = map[string]handlerFunc{
		types.EventAnnounce:          handler.handleAnnounce,
		types.EventJoinRoom:          handler.handleJoinRoom,
		types.EventLeaveRoom:         handler.handleLeaveRoom,
		types.EventDrawing:           handler.handleDrawing,
		types.EventClearWhiteboard:   handler.handleClearWhiteboard,
		types.EventToggleWhiteboard:  handler.handleToggleWhiteboard,
		types.EventRaiseHand:         handler.handleRaiseHand,
		types.EventFeedback:          handler.handleFeedback,
		types.EventCreateBreakout:    handler.handleCreateBreakout,
		types.EventJoinBreakout:      handler.handleJoinBreakout,
		types.EventLeaveBreakout:     handler.handleLeaveBreakout,
		types.EventBroadcastBreakout: handler.handleBroadcastBreakout,
		types.EventEndBreakout:       handler.handleEndBreakout,
	}
	return handler
}

// HandleWebSocket upgrades the request and runs the connection until the
// client goes away.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := newConnection(wsConn, h.cfg.SendBuffer, h.cfg.WriteTimeout)
	if err := h.hub.Register(c); err != nil {
		h.log.Error("connection registration failed", slog.Any("error", err))
		_ = c.Close()
		return
	}

	h.log.Info("connection established", slog.String("connection_id", c.ID()))
	go h.readLoop(c)
}

// readLoop reads inbound events until the connection drops, then runs
// disconnect cleanup exactly once. Cleanup is synchronous with respect to
// the disconnect: once it runs, no further event is delivered on behalf
// of this connection.
func (h *Handler) readLoop(c *Connection) {
	defer func() {
		h.hub.Disconnect(c.ID())
		h.limiter.Forget(c.ID())
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(h.cfg.WriteTimeout)
				if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-c.ctx.Done():
				return
			}
		}
	}()

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read failed",
					slog.String("connection_id", c.ID()), slog.Any("error", err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var in types.Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			h.sendError(c, "", "malformed event envelope")
			continue
		}

		if !h.limiter.Allow(c.ID()) {
			h.sendError(c, in.Name, ErrRateLimited.Error())
			continue
		}

		if err := h.dispatch(c, in); err != nil {
			// Failures stay scoped to the one event and the one
			// connection that sent it.
			h.log.Debug("event rejected",
				slog.String("connection_id", c.ID()),
				slog.String("event", in.Name),
				slog.Any("error", err))
			h.sendError(c, in.Name, err.Error())
		}
	}
}

func (h *Handler) dispatch(c *Connection, in types.Inbound) error {
	fn, ok := h.handlers[in.Name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, in.Name)
	}
	return fn(c, in.Data)
}

func (h *Handler) sendError(c *Connection, event, message string) {
	ev := types.NewEvent(types.EventError, types.ErrorPayload{Event: event, Message: message})
	if err := c.Send(ev); err != nil {
		h.log.Debug("error event undeliverable",
			slog.String("connection_id", c.ID()), slog.Any("error", err))
	}
}
