package hub

import "errors"

var (
	ErrNilConnection = errors.New("connection cannot be nil")
	ErrNotConnected  = errors.New("connection not registered")
)
