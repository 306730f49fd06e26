package ws

import (
	"sync"
	"time"
)

// RateLimiter caps inbound events per connection on a sliding minute
// window. Over-limit events are rejected back to the sender only; nothing
// else in the room is affected.
type RateLimiter struct {
	limit int
	mu    sync.Mutex
	conns map[string]*window
}

type window struct {
	count int
	start time.Time
}

// NewRateLimiter creates a limiter allowing limit events per minute per
// connection.
func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{
		limit: limit,
		conns: make(map[string]*window),
	}
}

// Allow reports whether the connection may emit another event, counting it
// if so.
func (rl *RateLimiter) Allow(connectionID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.conns[connectionID]
	if !ok || now.Sub(w.start) >= time.Minute {
		rl.conns[connectionID] = &window{count: 1, start: now}
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// Forget drops per-connection state; called on disconnect so the map does
// not accumulate dead connections.
func (rl *RateLimiter) Forget(connectionID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.conns, connectionID)
}
