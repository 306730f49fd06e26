// Package breakout partitions a session's audience into ephemeral
// sub-rooms and dissolves them again.
package breakout

import (
	"log/slog"
	"sync"

	"classhub/internal/room"
	"classhub/pkg/types"
)

// Hub is the subset of hub operations the orchestrator needs: room
// membership plus room-scoped broadcast.
type Hub interface {
	Join(connectionID, roomName string)
	Leave(connectionID, roomName string)
	Broadcast(roomName string, ev types.Event, excludeID string)
}

// partition is the bookkeeping for one breakout exercise. It lives from
// Create to End; no member survives across two partitions of the same
// session because End drops the whole structure.
type partition struct {
	order   []string                     // sub-room ids in announcement order
	rooms   map[string]types.BreakoutRoomDef
	members map[string]map[string]struct{} // sub-room id -> participant id set
}

// Orchestrator owns at most one active partition per session.
type Orchestrator struct {
	log *slog.Logger
	hub Hub

	mu         sync.Mutex
	partitions map[string]*partition // session id -> active partition
}

// NewOrchestrator creates an orchestrator with no active partitions.
func NewOrchestrator(log *slog.Logger, hub Hub) *Orchestrator {
	return &Orchestrator{
		log:        log,
		hub:        hub,
		partitions: make(map[string]*partition),
	}
}

// Create establishes a partition for the session and announces it to the
// session's primary room. It does not move any connection into a sub-room:
// each client joins its assigned room itself in response to the
// announcement. Fails with ErrPartitionExists while a partition is active.
func (o *Orchestrator) Create(sessionID string, defs []types.BreakoutRoomDef) error {
	if !types.IsValidID(sessionID) {
		return types.ErrInvalidID
	}
	if len(defs) == 0 {
		return ErrNoRooms
	}

	p := &partition{
		rooms:   make(map[string]types.BreakoutRoomDef, len(defs)),
		members: make(map[string]map[string]struct{}, len(defs)),
	}
	for _, def := range defs {
		if !types.IsValidID(def.ID) {
			return types.ErrInvalidID
		}
		if _, dup := p.rooms[def.ID]; dup {
			return ErrDuplicateRoom
		}
		p.rooms[def.ID] = def
		p.members[def.ID] = make(map[string]struct{})
		p.order = append(p.order, def.ID)
	}

	o.mu.Lock()
	if _, exists := o.partitions[sessionID]; exists {
		o.mu.Unlock()
		return ErrPartitionExists
	}
	o.partitions[sessionID] = p
	o.mu.Unlock()

	o.hub.Broadcast(room.Session(sessionID), types.NewEvent(types.EventBreakoutCreated,
		types.BreakoutAnnouncement{SessionID: sessionID, Rooms: defs}), "")

	o.log.Info("breakout partition created",
		slog.String("session_id", sessionID), slog.Int("rooms", len(defs)))
	return nil
}

// JoinRoom puts the connection into one sub-room of the active partition
// and announces the membership change to that sub-room only.
func (o *Orchestrator) JoinRoom(sessionID, roomID, connectionID, participantID string) error {
	if err := o.track(sessionID, roomID, participantID, true); err != nil {
		return err
	}

	name := room.Breakout(sessionID, roomID)
	o.hub.Join(connectionID, name)
	o.hub.Broadcast(name, types.NewEvent(types.EventBreakoutMemberJoin, types.MembershipChange{
		Room:          name,
		ConnectionID:  connectionID,
		ParticipantID: participantID,
	}), connectionID)
	return nil
}

// LeaveRoom removes the connection from one sub-room and announces the
// change to that sub-room.
func (o *Orchestrator) LeaveRoom(sessionID, roomID, connectionID, participantID string) error {
	if err := o.track(sessionID, roomID, participantID, false); err != nil {
		return err
	}

	name := room.Breakout(sessionID, roomID)
	o.hub.Leave(connectionID, name)
	o.hub.Broadcast(name, types.NewEvent(types.EventBreakoutMemberLeave, types.MembershipChange{
		Room:          name,
		ConnectionID:  connectionID,
		ParticipantID: participantID,
	}), connectionID)
	return nil
}

func (o *Orchestrator) track(sessionID, roomID, participantID string, join bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.partitions[sessionID]
	if !ok {
		return ErrNoPartition
	}
	members, ok := p.members[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if join {
		members[participantID] = struct{}{}
	} else {
		delete(members, participantID)
	}
	return nil
}

// BroadcastToAll delivers a facilitator message to every sub-room of the
// session's active partition at once. With no active partition it is a
// no-op with zero recipients, so a stale call after End does nothing.
func (o *Orchestrator) BroadcastToAll(sessionID, message, from string) {
	o.mu.Lock()
	p, ok := o.partitions[sessionID]
	var order []string
	if ok {
		order = append(order, p.order...)
	}
	o.mu.Unlock()
	if !ok {
		return
	}

	ev := types.NewEvent(types.EventBreakoutBroadcast, types.BreakoutBroadcastPayload{
		SessionID: sessionID,
		Message:   message,
		From:      from,
	})
	for _, roomID := range order {
		o.hub.Broadcast(room.Breakout(sessionID, roomID), ev, "")
	}
}

// End dissolves the session's partition. Connections are not forcibly
// evicted from sub-rooms; the breakout-ended event instructs clients to
// leave voluntarily. After End the orchestrator holds no bookkeeping for
// the session.
func (o *Orchestrator) End(sessionID string) error {
	o.mu.Lock()
	_, ok := o.partitions[sessionID]
	if ok {
		delete(o.partitions, sessionID)
	}
	o.mu.Unlock()
	if !ok {
		return ErrNoPartition
	}

	o.hub.Broadcast(room.Session(sessionID), types.NewEvent(types.EventBreakoutEnded,
		types.BreakoutSessionPayload{SessionID: sessionID}), "")

	o.log.Info("breakout partition ended", slog.String("session_id", sessionID))
	return nil
}

// Active reports whether the session currently has a partition.
func (o *Orchestrator) Active(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.partitions[sessionID]
	return ok
}
