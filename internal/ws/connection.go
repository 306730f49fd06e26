package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"classhub/pkg/types"
)

// Connection wraps one WebSocket link. All writes go through a single
// writer goroutine so concurrent broadcasts never race on the underlying
// socket. Identity fields start empty and are filled in once the client
// announces itself; there is a short window after link establishment in
// which the participant is unknown.
type Connection struct {
	id           string
	conn         *websocket.Conn
	writeCh      chan types.Event
	writeTimeout time.Duration
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once

	mu            sync.RWMutex
	sessionID     string
	participantID string
	displayName   string
	presenter     bool
}

func newConnection(conn *websocket.Conn, buffer int, writeTimeout time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.New().String(),
		conn:         conn,
		writeCh:      make(chan types.Event, buffer),
		writeTimeout: writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
	go c.writeLoop()
	return c
}

func (c *Connection) writeLoop() {
	for {
		select {
		case ev := <-c.writeCh:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// ID returns the generated connection id.
func (c *Connection) ID() string { return c.id }

// Send queues an event for delivery. It never blocks: a closed connection
// or a full buffer returns an error and the event is dropped for this
// recipient only.
func (c *Connection) Send(ev types.Event) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.writeCh <- ev:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// Close tears down the connection. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SetIdentity records the announced participant identity and session.
func (c *Connection) SetIdentity(sessionID, participantID, displayName string, presenter bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.participantID = participantID
	c.displayName = displayName
	c.presenter = presenter
}

// SessionID returns the announced session, or "" before the announce.
func (c *Connection) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// ParticipantID returns the announced participant id, or "".
func (c *Connection) ParticipantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.participantID
}

// DisplayName returns the announced display name, or "".
func (c *Connection) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName
}

// Presenter reports whether the connection announced the presenter role.
func (c *Connection) Presenter() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.presenter
}
