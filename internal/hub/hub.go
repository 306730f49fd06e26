package hub

import (
	"log/slog"
	"sync"

	"classhub/internal/room"
	"classhub/pkg/types"
)

// Sender is the hub's view of one live client connection. Implemented by
// ws.Connection; tests supply fakes.
type Sender interface {
	// ID returns the generated connection id.
	ID() string
	// ParticipantID returns the announced participant id, or "" while the
	// identity is still unknown.
	ParticipantID() string
	// SessionID returns the session the connection announced itself into,
	// or "" if it never did.
	SessionID() string
	// Send queues an event on the connection's outbound channel. It must
	// not block: a full buffer or closed connection returns an error.
	Send(types.Event) error
	// Close tears down the underlying transport.
	Close() error
}

// Hub owns the set of live connections and fans events out to room
// members. It is an explicit, constructed instance injected into every
// component that needs to broadcast; there is no ambient global.
type Hub struct {
	log   *slog.Logger
	rooms *room.Registry

	mu    sync.RWMutex
	conns map[string]Sender // connection id -> connection
}

// New creates a hub around the given room registry.
func New(log *slog.Logger, rooms *room.Registry) *Hub {
	return &Hub{
		log:   log,
		rooms: rooms,
		conns: make(map[string]Sender),
	}
}

// Register adds a connection to the hub on link establishment. The
// connection holds no room memberships until it joins one.
func (h *Hub) Register(s Sender) error {
	if s == nil {
		return ErrNilConnection
	}

	h.mu.Lock()
	h.conns[s.ID()] = s
	h.mu.Unlock()

	h.log.Debug("connection registered", slog.String("connection_id", s.ID()))
	return nil
}

// Connection returns the registered connection for an id.
func (h *Hub) Connection(connectionID string) (Sender, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.conns[connectionID]
	return s, ok
}

// Join adds the connection to a room.
func (h *Hub) Join(connectionID, roomName string) {
	h.rooms.Join(connectionID, roomName)
}

// Leave removes the connection from a room.
func (h *Hub) Leave(connectionID, roomName string) {
	h.rooms.Leave(connectionID, roomName)
}

// Broadcast delivers the event to every current member of the room except
// excludeID. Delivery is fire-and-forget: a slow or dead recipient is
// skipped without affecting delivery to the rest of the room. Within one
// room, events from the same source reach each member in broadcast order.
func (h *Hub) Broadcast(roomName string, ev types.Event, excludeID string) {
	members := h.rooms.MembersOf(roomName)
	if len(members) == 0 {
		return
	}

	h.mu.RLock()
	recipients := make([]Sender, 0, len(members))
	for _, id := range members {
		if id == excludeID {
			continue
		}
		if s, ok := h.conns[id]; ok {
			recipients = append(recipients, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range recipients {
		if err := s.Send(ev); err != nil {
			h.log.Warn("event delivery failed",
				slog.String("room", roomName),
				slog.String("event", ev.Name),
				slog.String("connection_id", s.ID()),
				slog.Any("error", err))
		}
	}
}

// Disconnect removes the connection from the hub and from every room it
// joined, then closes it. If the connection had announced itself into a
// session, a participant-left event goes to that session's primary room.
// Idempotent: disconnecting an unknown id is a no-op. No event is
// delivered on behalf of the connection after it has been removed.
func (h *Hub) Disconnect(connectionID string) {
	h.mu.Lock()
	s, ok := h.conns[connectionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, connectionID)
	h.mu.Unlock()

	rooms := h.rooms.LeaveAll(connectionID)

	if sessionID := s.SessionID(); sessionID != "" {
		h.Broadcast(room.Session(sessionID), types.NewEvent(types.EventParticipantLeft, types.ParticipantChange{
			SessionID:     sessionID,
			ParticipantID: s.ParticipantID(),
		}), connectionID)
	}

	if err := s.Close(); err != nil {
		h.log.Debug("close after disconnect", slog.Any("error", err))
	}

	h.log.Info("connection disconnected",
		slog.String("connection_id", connectionID),
		slog.Int("rooms_left", len(rooms)))
}

// Stats returns connection and room counts for the health endpoint.
func (h *Hub) Stats() map[string]int {
	h.mu.RLock()
	total := len(h.conns)
	h.mu.RUnlock()

	stats := h.rooms.Stats()
	stats["connections"] = total
	return stats
}
