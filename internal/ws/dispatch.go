package ws

import (
	"encoding/json"
	"fmt"

	"classhub/internal/room"
	"classhub/pkg/types"
)

func decode[T any](data json.RawMessage) (T, error) {
	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

// handleAnnounce records the client's participant identity, puts it into
// the session's primary room and tells the room about the newcomer.
func (h *Handler) handleAnnounce(c *Connection, data json.RawMessage) error {
	p, err := decode[types.AnnouncePayload](data)
	if err != nil {
		return err
	}
	if !types.IsValidID(p.SessionID) || !types.IsValidID(p.ParticipantID) {
		return types.ErrInvalidID
	}

	c.SetIdentity(p.SessionID, p.ParticipantID, p.DisplayName, p.Presenter)
	h.hub.Join(c.ID(), room.Session(p.SessionID))
	h.hub.Broadcast(room.Session(p.SessionID), types.NewEvent(types.EventParticipantJoined, types.ParticipantChange{
		SessionID:     p.SessionID,
		ParticipantID: p.ParticipantID,
		DisplayName:   p.DisplayName,
		Presenter:     p.Presenter,
	}), c.ID())
	return nil
}

func (h *Handler) handleJoinRoom(c *Connection, data json.RawMessage) error {
	p, err := decode[types.JoinRoomPayload](data)
	if err != nil {
		return err
	}
	name, err := room.Name(p.Kind, p.SessionID, p.SubID)
	if err != nil {
		return err
	}

	h.hub.Join(c.ID(), name)
	h.hub.Broadcast(name, types.NewEvent(types.EventMemberJoined, types.MembershipChange{
		Room:          name,
		ConnectionID:  c.ID(),
		ParticipantID: c.ParticipantID(),
	}), c.ID())
	return nil
}

func (h *Handler) handleLeaveRoom(c *Connection, data json.RawMessage) error {
	p, err := decode[types.JoinRoomPayload](data)
	if err != nil {
		return err
	}
	name, err := room.Name(p.Kind, p.SessionID, p.SubID)
	if err != nil {
		return err
	}

	h.hub.Leave(c.ID(), name)
	h.hub.Broadcast(name, types.NewEvent(types.EventMemberLeft, types.MembershipChange{
		Room:          name,
		ConnectionID:  c.ID(),
		ParticipantID: c.ParticipantID(),
	}), c.ID())
	return nil
}

// handleDrawing relays stroke data verbatim to the whiteboard sub-channel.
// The sender is excluded: its UI already applied the stroke optimistically.
func (h *Handler) handleDrawing(c *Connection, data json.RawMessage) error {
	p, err := decode[types.DrawingPayload](data)
	if err != nil {
		return err
	}
	if !types.IsValidID(p.SessionID) {
		return types.ErrInvalidID
	}

	h.hub.Broadcast(room.Whiteboard(p.SessionID), types.NewEvent(types.EventDrawing, p), c.ID())
	return nil
}

func (h *Handler) handleClearWhiteboard(c *Connection, data json.RawMessage) error {
	p, err := decode[types.WhiteboardPayload](data)
	if err != nil {
		return err
	}
	if !types.IsValidID(p.SessionID) {
		return types.ErrInvalidID
	}

	h.hub.Broadcast(room.Whiteboard(p.SessionID), types.NewEvent(types.EventWhiteboardCleared, p), c.ID())
	return nil
}

// handleToggleWhiteboard announces visibility to the primary session room,
// not the whiteboard room: clients that have not joined the whiteboard yet
// must still learn it became visible.
func (h *Handler) handleToggleWhiteboard(c *Connection, data json.RawMessage) error {
	p, err := decode[types.WhiteboardPayload](data)
	if err != nil {
		return err
	}
	if !types.IsValidID(p.SessionID) {
		return types.ErrInvalidID
	}

	h.hub.Broadcast(room.Session(p.SessionID), types.NewEvent(types.EventWhiteboardVisibility, p), c.ID())
	return nil
}

func (h *Handler) handleRaiseHand(c *Connection, data json.RawMessage) error {
	p, err := decode[types.RaiseHandPayload](data)
	if err != nil {
		return err
	}
	if !types.IsValidID(p.SessionID) || !types.IsValidID(p.ParticipantID) {
		return types.ErrInvalidID
	}

	h.hub.Broadcast(room.Session(p.SessionID), types.NewEvent(types.EventHandRaised, p), c.ID())
	return nil
}

func (h *Handler) handleFeedback(c *Connection, data json.RawMessage) error {
	p, err := decode[types.FeedbackPayload](data)
	if err != nil {
		return err
	}
	if !types.IsValidID(p.SessionID) {
		return types.ErrInvalidID
	}

	h.hub.Broadcast(room.Session(p.SessionID), types.NewEvent(types.EventFeedbackReceived, p), c.ID())
	return nil
}

func (h *Handler) handleCreateBreakout(c *Connection, data json.RawMessage) error {
	p, err := decode[types.CreateBreakoutPayload](data)
	if err != nil {
		return err
	}
	return h.breakouts.Create(p.SessionID, p.Rooms)
}

func (h *Handler) handleJoinBreakout(c *Connection, data json.RawMessage) error {
	p, err := decode[types.BreakoutMemberPayload](data)
	if err != nil {
		return err
	}
	participantID := p.ParticipantID
	if participantID == "" {
		participantID = c.ParticipantID()
	}
	return h.breakouts.JoinRoom(p.SessionID, p.RoomID, c.ID(), participantID)
}

func (h *Handler) handleLeaveBreakout(c *Connection, data json.RawMessage) error {
	p, err := decode[types.BreakoutMemberPayload](data)
	if err != nil {
		return err
	}
	participantID := p.ParticipantID
	if participantID == "" {
		participantID = c.ParticipantID()
	}
	return h.breakouts.LeaveRoom(p.SessionID, p.RoomID, c.ID(), participantID)
}

func (h *Handler) handleBroadcastBreakout(c *Connection, data json.RawMessage) error {
	p, err := decode[types.BreakoutBroadcastPayload](data)
	if err != nil {
		return err
	}
	from := p.From
	if from == "" {
		from = c.ParticipantID()
	}
	h.breakouts.BroadcastToAll(p.SessionID, p.Message, from)
	return nil
}

func (h *Handler) handleEndBreakout(c *Connection, data json.RawMessage) error {
	p, err := decode[types.BreakoutSessionPayload](data)
	if err != nil {
		return err
	}
	return h.breakouts.End(p.SessionID)
}
