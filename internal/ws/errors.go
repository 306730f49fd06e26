package ws

import "errors"

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrRateLimited      = errors.New("event rate limit exceeded")
)
