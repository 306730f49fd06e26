package room

import (
	"sync"

	"github.com/samber/lo"
)

// Registry maintains the many-to-many membership between connections and
// named rooms. Rooms have no independent lifecycle: a room exists exactly
// while it has members. The first join creates it, removal of the last
// member discards it, and a later join recreates it with no memory of
// prior members.
//
// Membership is kept symmetric: the per-connection room set and the
// per-room member set always agree, maintained together under one lock.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]struct{} // room name -> connection id set
	joined map[string]map[string]struct{} // connection id -> room name set
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]struct{}),
		joined: make(map[string]map[string]struct{}),
	}
}

// Join adds the connection to the room, creating the room if absent.
// Idempotent: re-joining a room the connection is already in is a no-op.
func (r *Registry) Join(connectionID, roomName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[roomName] == nil {
		r.rooms[roomName] = make(map[string]struct{})
	}
	r.rooms[roomName][connectionID] = struct{}{}

	if r.joined[connectionID] == nil {
		r.joined[connectionID] = make(map[string]struct{})
	}
	r.joined[connectionID][roomName] = struct{}{}
}

// Leave removes the connection from the room. Idempotent: leaving a room
// the connection is not in is a no-op. A room whose last member leaves is
// discarded.
func (r *Registry) Leave(connectionID, roomName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connectionID, roomName)
}

func (r *Registry) leaveLocked(connectionID, roomName string) {
	if members, ok := r.rooms[roomName]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(r.rooms, roomName)
		}
	}
	if rooms, ok := r.joined[connectionID]; ok {
		delete(rooms, roomName)
		if len(rooms) == 0 {
			delete(r.joined, connectionID)
		}
	}
}

// MembersOf returns a point-in-time copy of the room's member ids. Callers
// must not assume liveness: a member may disconnect between the snapshot
// and any use of it.
func (r *Registry) MembersOf(roomName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.rooms[roomName])
}

// RoomsOf returns a snapshot of the room names the connection has joined.
func (r *Registry) RoomsOf(connectionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.joined[connectionID])
}

// LeaveAll removes the connection from every room it belongs to and returns
// the names of the rooms it left. Invoked on disconnect; idempotent.
func (r *Registry) LeaveAll(connectionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	left := lo.Keys(r.joined[connectionID])
	for _, roomName := range left {
		r.leaveLocked(connectionID, roomName)
	}
	return left
}

// Stats returns room counts for the health endpoint.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"rooms":              len(r.rooms),
		"joined_connections": len(r.joined),
	}
}
