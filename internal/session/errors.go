package session

import "errors"

// ErrIllegalTransition is returned when a start/end request arrives while
// the session is not in the required state. The session is left unchanged
// and no event is broadcast.
var ErrIllegalTransition = errors.New("illegal session status transition")
