package types

import (
	"time"
)

// Session status values. Transitions are one-directional:
// scheduled -> active -> completed.
const (
	StatusScheduled = "scheduled"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Session represents a class session record. The record itself is owned by
// the CRUD layer; the real-time core only observes and announces changes to
// Status, StartTime and EndTime.
type Session struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	CreatedBy string     `json:"created_by" db:"created_by"`
	Status    string     `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	StartTime *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"end_time"`
}

// AttendanceStatus is the per-participant presence state for a session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Valid reports whether the status is one of the two allowed values.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// AttendanceRecord is the upserted state for one (session, participant)
// pair. At most one record exists per pair.
type AttendanceRecord struct {
	SessionID     string           `json:"session_id"`
	ParticipantID string           `json:"participant_id"`
	Status        AttendanceStatus `json:"status"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// BreakoutRoomDef describes one desired sub-room of a breakout partition.
// AssignedIDs is advisory only: clients join their assigned room themselves
// in response to the partition announcement, so the orchestrator never needs
// to map participant ids to live connections at creation time.
type BreakoutRoomDef struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	AssignedIDs []string `json:"assigned_ids,omitempty"`
}
