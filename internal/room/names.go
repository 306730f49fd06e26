package room

import (
	"fmt"

	"classhub/pkg/types"
)

// Room kinds. Each kind is an independent namespace: membership in
// whiteboard:X does not imply membership in session:X.
const (
	KindSession    = "session"
	KindWhiteboard = "whiteboard"
	KindDiscussion = "discussion"
	KindBreakout   = "breakout"
)

// Session returns the primary room name for a live session.
func Session(sessionID string) string {
	return KindSession + ":" + sessionID
}

// Whiteboard returns the drawing sub-channel room name.
func Whiteboard(sessionID string) string {
	return KindWhiteboard + ":" + sessionID
}

// Discussion returns the text-discussion sub-channel room name.
func Discussion(sessionID string) string {
	return KindDiscussion + ":" + sessionID
}

// Breakout returns the room name for one ephemeral breakout sub-room.
func Breakout(sessionID, roomID string) string {
	return KindBreakout + ":" + sessionID + ":" + roomID
}

// Name builds a room name from an inbound (kind, sessionID, subID) triple.
// Breakout rooms require a subID; the other kinds reject one.
func Name(kind, sessionID, subID string) (string, error) {
	if !types.IsValidID(sessionID) {
		return "", types.ErrInvalidID
	}
	switch kind {
	case KindSession, KindWhiteboard, KindDiscussion:
		if subID != "" {
			return "", fmt.Errorf("%w: %s rooms take no sub id", types.ErrInvalidRoomKind, kind)
		}
		return kind + ":" + sessionID, nil
	case KindBreakout:
		if !types.IsValidID(subID) {
			return "", types.ErrInvalidID
		}
		return Breakout(sessionID, subID), nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrInvalidRoomKind, kind)
	}
}
