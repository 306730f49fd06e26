// Package attendance maintains the in-memory present/absent state per
// (session, participant) pair and announces changes on both delivery paths.
package attendance

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"classhub/internal/bridge"
	"classhub/internal/room"
	"classhub/pkg/types"
)

// Broadcaster delivers an event to every member of a room.
type Broadcaster interface {
	Broadcast(roomName string, ev types.Event, excludeID string)
}

// Publisher delivers an event to every subscriber of a bridge topic.
type Publisher interface {
	Publish(topic string, ev types.Event)
}

// Synchronizer upserts attendance records and broadcasts each change to
// the session's primary room and the bridge. Late-joining clients call
// Snapshot to reconcile state they missed.
type Synchronizer struct {
	log    *slog.Logger
	hub    Broadcaster
	bridge Publisher

	mu      sync.RWMutex
	records map[string]map[string]types.AttendanceRecord // session id -> participant id -> record
}

// NewSynchronizer creates an empty synchronizer.
func NewSynchronizer(log *slog.Logger, hub Broadcaster, bridge Publisher) *Synchronizer {
	return &Synchronizer{
		log:     log,
		hub:     hub,
		bridge:  bridge,
		records: make(map[string]map[string]types.AttendanceRecord),
	}
}

// Record upserts the attendance record for (sessionID, participantID) with
// a fresh timestamp. The first update for a pair creates the record;
// subsequent updates overwrite status and timestamp, so at most one record
// exists per pair.
func (s *Synchronizer) Record(sessionID, participantID string, status types.AttendanceStatus) (types.AttendanceRecord, error) {
	if !types.IsValidID(sessionID) || !types.IsValidID(participantID) {
		return types.AttendanceRecord{}, types.ErrInvalidID
	}
	if !status.Valid() {
		return types.AttendanceRecord{}, types.ErrInvalidStatus
	}

	record := types.AttendanceRecord{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Status:        status,
		UpdatedAt:     time.Now(),
	}

	s.mu.Lock()
	if s.records[sessionID] == nil {
		s.records[sessionID] = make(map[string]types.AttendanceRecord)
	}
	s.records[sessionID][participantID] = record
	s.mu.Unlock()

	ev := types.NewEvent(types.EventAttendanceChanged, record)
	s.hub.Broadcast(room.Session(sessionID), ev, "")
	s.bridge.Publish(bridge.TopicSessionUpdates, ev)

	s.log.Debug("attendance recorded",
		slog.String("session_id", sessionID),
		slog.String("participant_id", participantID),
		slog.String("status", string(status)))
	return record, nil
}

// Snapshot returns the current records for a session, ordered by
// participant id. An unknown session yields an empty slice.
func (s *Synchronizer) Snapshot(sessionID string) []types.AttendanceRecord {
	s.mu.RLock()
	records := lo.Values(s.records[sessionID])
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].ParticipantID < records[j].ParticipantID
	})
	return records
}
