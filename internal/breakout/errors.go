package breakout

import "errors"

var (
	// ErrPartitionExists rejects a create while a partition is still active
	// for the session; the existing partition is left untouched.
	ErrPartitionExists = errors.New("breakout partition already exists for session")
	// ErrNoPartition reports an operation against a session with no active
	// partition.
	ErrNoPartition = errors.New("no active breakout partition for session")
	// ErrRoomNotFound reports a sub-room id outside the active partition.
	ErrRoomNotFound = errors.New("breakout room not part of active partition")
	// ErrNoRooms rejects a create with an empty room list.
	ErrNoRooms = errors.New("breakout partition needs at least one room")
	// ErrDuplicateRoom rejects a create with a repeated sub-room id.
	ErrDuplicateRoom = errors.New("duplicate breakout room id")
)
