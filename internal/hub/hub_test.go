package hub

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"classhub/internal/room"
	"classhub/pkg/types"
)

// fakeSender stands in for a ws connection; it records delivered events.
type fakeSender struct {
	id            string
	participantID string
	sessionID     string
	failSend      bool

	mu     sync.Mutex
	events []types.Event
	closed bool
}

func (f *fakeSender) ID() string            { return f.id }
func (f *fakeSender) ParticipantID() string { return f.participantID }
func (f *fakeSender) SessionID() string     { return f.sessionID }

func (f *fakeSender) Send(ev types.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	if f.failSend {
		return errors.New("send failed")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) received() []types.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Event(nil), f.events...)
}

func newTestHub() *Hub {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), room.NewRegistry())
}

func TestHub_RegisterRejectsNil(t *testing.T) {
	h := newTestHub()
	require.ErrorIs(t, h.Register(nil), ErrNilConnection)
}

func TestHub_BroadcastDeliversToRoomMembers(t *testing.T) {
	h := newTestHub()

	c1 := &fakeSender{id: "c1"}
	c2 := &fakeSender{id: "c2"}
	c3 := &fakeSender{id: "c3"}
	for _, c := range []*fakeSender{c1, c2, c3} {
		require.NoError(t, h.Register(c))
	}
	h.Join("c1", "session:s1")
	h.Join("c2", "session:s1")
	// c3 never joins the room.

	h.Broadcast("session:s1", types.NewEvent(types.EventHandRaised, nil), "")

	require.Len(t, c1.received(), 1)
	require.Len(t, c2.received(), 1)
	require.Empty(t, c3.received())
}

func TestHub_BroadcastExcludesSender(t *testing.T) {
	h := newTestHub()

	c1 := &fakeSender{id: "c1"}
	c2 := &fakeSender{id: "c2"}
	c3 := &fakeSender{id: "c3"}
	for _, c := range []*fakeSender{c1, c2, c3} {
		require.NoError(t, h.Register(c))
		h.Join(c.id, "session:s1")
	}

	h.Broadcast("session:s1", types.NewEvent(types.EventDrawing, nil), "c1")

	require.Empty(t, c1.received())
	require.Len(t, c2.received(), 1)
	require.Len(t, c3.received(), 1)
}

func TestHub_BroadcastSurvivesFailingRecipient(t *testing.T) {
	h := newTestHub()

	dead := &fakeSender{id: "dead", failSend: true}
	alive := &fakeSender{id: "alive"}
	require.NoError(t, h.Register(dead))
	require.NoError(t, h.Register(alive))
	h.Join("dead", "session:s1")
	h.Join("alive", "session:s1")

	h.Broadcast("session:s1", types.NewEvent(types.EventFeedbackReceived, nil), "")

	require.Len(t, alive.received(), 1)
}

func TestHub_PerRoomOrderFromOneSource(t *testing.T) {
	h := newTestHub()

	member := &fakeSender{id: "member"}
	require.NoError(t, h.Register(member))
	h.Join("member", "whiteboard:s1")

	for i := 0; i < 20; i++ {
		h.Broadcast("whiteboard:s1", types.NewEvent(types.EventDrawing, i), "")
	}

	got := member.received()
	require.Len(t, got, 20)
	for i, ev := range got {
		require.Equal(t, i, ev.Data)
	}
}

func TestHub_DisconnectCleansUpEverything(t *testing.T) {
	h := newTestHub()

	leaving := &fakeSender{id: "leaving", participantID: "p1", sessionID: "s1"}
	staying := &fakeSender{id: "staying", sessionID: "s1"}
	require.NoError(t, h.Register(leaving))
	require.NoError(t, h.Register(staying))
	h.Join("leaving", "session:s1")
	h.Join("leaving", "whiteboard:s1")
	h.Join("staying", "session:s1")

	h.Disconnect("leaving")

	// Removed from every room and from the hub.
	_, ok := h.Connection("leaving")
	require.False(t, ok)
	require.True(t, leaving.closed)

	// The session's primary room heard participant-left exactly once.
	got := staying.received()
	require.Len(t, got, 1)
	require.Equal(t, types.EventParticipantLeft, got[0].Name)
	change, ok := got[0].Data.(types.ParticipantChange)
	require.True(t, ok)
	require.Equal(t, "p1", change.ParticipantID)

	// Nothing reaches the disconnected sender afterwards.
	h.Broadcast("session:s1", types.NewEvent(types.EventHandRaised, nil), "")
	require.Empty(t, leaving.received())

	// Disconnecting twice is safe and emits nothing further.
	h.Disconnect("leaving")
	require.Len(t, staying.received(), 2) // participant-left + hand-raised
}

func TestHub_DisconnectWithoutAnnounceEmitsNothing(t *testing.T) {
	h := newTestHub()

	silent := &fakeSender{id: "silent"} // never announced a session
	observer := &fakeSender{id: "observer", sessionID: "s1"}
	require.NoError(t, h.Register(silent))
	require.NoError(t, h.Register(observer))
	h.Join("observer", "session:s1")

	h.Disconnect("silent")
	require.Empty(t, observer.received())
}

func TestHub_Stats(t *testing.T) {
	h := newTestHub()

	require.NoError(t, h.Register(&fakeSender{id: "c1"}))
	h.Join("c1", "session:s1")

	stats := h.Stats()
	require.Equal(t, 1, stats["connections"])
	require.Equal(t, 1, stats["rooms"])
}
