// Package session owns the session CRUD surface and the lifecycle state
// machine guarding status transitions.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"classhub/internal/bridge"
	"classhub/internal/room"
	"classhub/pkg/types"
)

// Store is the persistence collaborator for session records.
type Store interface {
	CreateSession(ctx context.Context, session *types.Session) error
	GetSession(ctx context.Context, sessionID string) (*types.Session, error)
	ListSessions(ctx context.Context) ([]*types.Session, error)
	UpdateSessionName(ctx context.Context, sessionID, name string) error
	UpdateSessionStatus(ctx context.Context, sessionID, status string, at time.Time) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// Broadcaster delivers an event to every member of a room.
type Broadcaster interface {
	Broadcast(roomName string, ev types.Event, excludeID string)
}

// Publisher delivers an event to every subscriber of a bridge topic.
type Publisher interface {
	Publish(topic string, ev types.Event)
}

// Manager serializes lifecycle transitions per session and announces every
// session change on both delivery paths: the session's primary room and
// the cross-channel bridge.
type Manager struct {
	log    *slog.Logger
	store  Store
	hub    Broadcaster
	bridge Publisher

	mu    sync.Mutex
	locks map[string]*sync.Mutex // session id -> transition lock
}

// NewManager creates a session manager.
func NewManager(log *slog.Logger, store Store, hub Broadcaster, bridge Publisher) *Manager {
	return &Manager{
		log:    log,
		store:  store,
		hub:    hub,
		bridge: bridge,
		locks:  make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the transition lock for a session, creating it on
// first use. Transitions on disjoint sessions proceed independently.
func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	return l
}

// Create makes a new session record in the scheduled state and publishes
// session-created on the bridge.
func (m *Manager) Create(ctx context.Context, name, createdBy string) (*types.Session, error) {
	session := &types.Session{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedBy: createdBy,
		Status:    types.StatusScheduled,
		CreatedAt: time.Now(),
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}

	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.bridge.Publish(bridge.TopicSessionUpdates,
		types.NewEvent(types.EventSessionCreated, types.SessionChange{Session: session}))

	m.log.Info("session created",
		slog.String("session_id", session.ID), slog.String("name", session.Name))
	return session, nil
}

// Get returns one session record.
func (m *Manager) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	return m.store.GetSession(ctx, sessionID)
}

// List returns all session records.
func (m *Manager) List(ctx context.Context) ([]*types.Session, error) {
	return m.store.ListSessions(ctx)
}

// Update renames a session and publishes session-updated on the bridge.
func (m *Manager) Update(ctx context.Context, sessionID, name string) (*types.Session, error) {
	if len(name) < 1 || len(name) > 200 {
		return nil, types.ErrInvalidSessionName
	}
	if err := m.store.UpdateSessionName(ctx, sessionID, name); err != nil {
		return nil, err
	}
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	m.bridge.Publish(bridge.TopicSessionUpdates,
		types.NewEvent(types.EventSessionUpdated, types.SessionChange{Session: session}))
	return session, nil
}

// Delete removes a session record and publishes session-deleted.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := m.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	m.bridge.Publish(bridge.TopicSessionUpdates,
		types.NewEvent(types.EventSessionDeleted, types.SessionChange{Session: session}))

	m.log.Info("session deleted", slog.String("session_id", sessionID))
	return nil
}

// Start moves a session from scheduled to active. Any other current state
// is rejected with ErrIllegalTransition and nothing is mutated or
// broadcast. Concurrent start/end calls for the same session are
// serialized, so exactly one of two racing transitions succeeds.
func (m *Manager) Start(ctx context.Context, sessionID string) (*types.Session, error) {
	return m.transition(ctx, sessionID, types.StatusScheduled, types.StatusActive)
}

// End moves a session from active to completed. Skipping a state
// (scheduled directly to completed) is rejected.
func (m *Manager) End(ctx context.Context, sessionID string) (*types.Session, error) {
	return m.transition(ctx, sessionID, types.StatusActive, types.StatusCompleted)
}

func (m *Manager) transition(ctx context.Context, sessionID, from, to string) (*types.Session, error) {
	l := m.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s (currently %s)",
			ErrIllegalTransition, from, to, session.Status)
	}

	now := time.Now()
	if err := m.store.UpdateSessionStatus(ctx, sessionID, to, now); err != nil {
		return nil, err
	}
	session.Status = to
	switch to {
	case types.StatusActive:
		session.StartTime = &now
	case types.StatusCompleted:
		session.EndTime = &now
	}

	change := types.StatusChange{SessionID: sessionID, Status: to, At: now}
	m.hub.Broadcast(room.Session(sessionID), types.NewEvent(types.EventSessionStatus, change), "")
	m.bridge.Publish(bridge.TopicSessionUpdates, types.NewEvent(types.EventSessionStatus, change))

	m.log.Info("session status changed",
		slog.String("session_id", sessionID), slog.String("status", to))
	return session, nil
}
