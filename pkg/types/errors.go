package types

import "errors"

// Validation and lookup errors shared across components.
var (
	ErrInvalidID          = errors.New("id must be 1-64 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidSessionName = errors.New("session name must be 1-200 characters")
	ErrInvalidRoomKind    = errors.New("invalid room kind")
	ErrInvalidStatus      = errors.New("attendance status must be 'present' or 'absent'")
	ErrSessionNotFound    = errors.New("session not found")
)
