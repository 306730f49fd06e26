package types

import (
	"encoding/json"
	"time"
)

// Inbound event names accepted on the bidirectional channel.
const (
	EventAnnounce          = "announce"
	EventJoinRoom          = "join-room"
	EventLeaveRoom         = "leave-room"
	EventDrawing           = "drawing"
	EventClearWhiteboard   = "clear-whiteboard"
	EventToggleWhiteboard  = "toggle-whiteboard"
	EventRaiseHand         = "raise-hand"
	EventFeedback          = "feedback"
	EventCreateBreakout    = "create-breakout-rooms"
	EventJoinBreakout      = "join-breakout-room"
	EventLeaveBreakout     = "leave-breakout-room"
	EventBroadcastBreakout = "broadcast-to-breakout-rooms"
	EventEndBreakout       = "end-breakout-rooms"
)

// Outbound event names delivered to room members and push subscribers.
const (
	EventParticipantJoined    = "participant-joined"
	EventParticipantLeft      = "participant-left"
	EventMemberJoined         = "member-joined"
	EventMemberLeft           = "member-left"
	EventWhiteboardCleared    = "whiteboard-cleared"
	EventWhiteboardVisibility = "whiteboard-visibility-changed"
	EventHandRaised           = "hand-raised"
	EventFeedbackReceived     = "feedback-received"
	EventBreakoutCreated      = "breakout-rooms-created"
	EventBreakoutEnded        = "breakout-ended"
	EventBreakoutMemberJoin   = "breakout-member-joined"
	EventBreakoutMemberLeave  = "breakout-member-left"
	EventBreakoutBroadcast    = "breakout-broadcast"
	EventSessionCreated       = "session-created"
	EventSessionUpdated       = "session-updated"
	EventSessionDeleted       = "session-deleted"
	EventSessionStatus        = "session-status-changed"
	EventAttendanceChanged    = "attendance-changed"
	EventConnected            = "connected"
	EventError                = "error"
)

// Event is the outbound envelope delivered on both channels. Data holds one
// of the closed payload variants below, keyed by Name.
type Event struct {
	Name      string    `json:"event"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds an outbound envelope stamped with the current time.
func NewEvent(name string, data any) Event {
	return Event{Name: name, Data: data, Timestamp: time.Now()}
}

// Inbound is the envelope read off the bidirectional channel. Data is
// decoded into the payload variant selected by Name via the dispatch table.
type Inbound struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Inbound payload variants, one per event name.

type AnnouncePayload struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Presenter     bool   `json:"presenter"`
}

type JoinRoomPayload struct {
	Kind      string `json:"kind"`
	SessionID string `json:"session_id"`
	SubID     string `json:"sub_id,omitempty"`
}

type DrawingPayload struct {
	SessionID string          `json:"session_id"`
	Stroke    json.RawMessage `json:"stroke"`
}

type WhiteboardPayload struct {
	SessionID string `json:"session_id"`
	Visible   bool   `json:"visible,omitempty"`
}

type RaiseHandPayload struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	Raised        bool   `json:"raised"`
}

type FeedbackPayload struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	From      string `json:"from"`
}

type CreateBreakoutPayload struct {
	SessionID string            `json:"session_id"`
	Rooms     []BreakoutRoomDef `json:"rooms"`
}

type BreakoutMemberPayload struct {
	SessionID     string `json:"session_id"`
	RoomID        string `json:"room_id"`
	ParticipantID string `json:"participant_id"`
}

type BreakoutBroadcastPayload struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	From      string `json:"from,omitempty"`
}

type BreakoutSessionPayload struct {
	SessionID string `json:"session_id"`
}

// Outbound payload variants.

type ParticipantChange struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name,omitempty"`
	Presenter     bool   `json:"presenter,omitempty"`
}

type MembershipChange struct {
	Room          string `json:"room"`
	ConnectionID  string `json:"connection_id"`
	ParticipantID string `json:"participant_id,omitempty"`
}

type StatusChange struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

type BreakoutAnnouncement struct {
	SessionID string            `json:"session_id"`
	Rooms     []BreakoutRoomDef `json:"rooms"`
}

type SessionChange struct {
	Session *Session `json:"session"`
}

type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}
