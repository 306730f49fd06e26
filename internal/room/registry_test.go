package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_JoinAndMembersOf(t *testing.T) {
	r := NewRegistry()

	r.Join("c1", "session:s1")
	r.Join("c2", "session:s1")

	require.ElementsMatch(t, []string{"c1", "c2"}, r.MembersOf("session:s1"))
	require.Empty(t, r.MembersOf("session:other"))
}

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Join("c1", "session:s1")
	r.Join("c1", "session:s1")

	require.Equal(t, []string{"c1"}, r.MembersOf("session:s1"))
	require.Equal(t, []string{"session:s1"}, r.RoomsOf("c1"))
}

func TestRegistry_LeaveRemovesMembership(t *testing.T) {
	r := NewRegistry()

	r.Join("c1", "session:s1")
	r.Join("c2", "session:s1")
	r.Leave("c1", "session:s1")

	require.Equal(t, []string{"c2"}, r.MembersOf("session:s1"))
	require.Empty(t, r.RoomsOf("c1"))

	// Leaving again, or leaving a room never joined, is a no-op.
	r.Leave("c1", "session:s1")
	r.Leave("c1", "session:never")
	require.Equal(t, []string{"c2"}, r.MembersOf("session:s1"))
}

func TestRegistry_EmptyRoomIsDiscarded(t *testing.T) {
	r := NewRegistry()

	r.Join("c1", "whiteboard:s1")
	r.Leave("c1", "whiteboard:s1")
	require.Zero(t, r.Stats()["rooms"])

	// The next join recreates the room fresh, with no memory of prior
	// members.
	r.Join("c2", "whiteboard:s1")
	require.Equal(t, []string{"c2"}, r.MembersOf("whiteboard:s1"))
}

func TestRegistry_LeaveAll(t *testing.T) {
	r := NewRegistry()

	r.Join("c1", "session:s1")
	r.Join("c1", "whiteboard:s1")
	r.Join("c1", "discussion:s1")
	r.Join("c2", "session:s1")

	left := r.LeaveAll("c1")
	require.ElementsMatch(t, []string{"session:s1", "whiteboard:s1", "discussion:s1"}, left)

	require.Equal(t, []string{"c2"}, r.MembersOf("session:s1"))
	require.Empty(t, r.MembersOf("whiteboard:s1"))
	require.Empty(t, r.RoomsOf("c1"))

	// Idempotent: a second LeaveAll leaves nothing.
	require.Empty(t, r.LeaveAll("c1"))
}

func TestRegistry_MembersOfIsSnapshot(t *testing.T) {
	r := NewRegistry()

	r.Join("c1", "session:s1")
	snapshot := r.MembersOf("session:s1")
	r.Leave("c1", "session:s1")

	require.Equal(t, []string{"c1"}, snapshot)
	require.Empty(t, r.MembersOf("session:s1"))
}

func TestRegistry_SymmetricUnderConcurrency(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%d", n)
			roomName := fmt.Sprintf("session:s%d", n%5)
			for j := 0; j < 100; j++ {
				r.Join(connID, roomName)
				r.MembersOf(roomName)
				r.Leave(connID, roomName)
			}
			r.Join(connID, roomName)
			r.LeaveAll(connID)
		}(i)
	}
	wg.Wait()

	stats := r.Stats()
	require.Zero(t, stats["rooms"])
	require.Zero(t, stats["joined_connections"])
}

func TestName(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		sessionID string
		subID     string
		want      string
		wantErr   bool
	}{
		{name: "session room", kind: KindSession, sessionID: "s1", want: "session:s1"},
		{name: "whiteboard room", kind: KindWhiteboard, sessionID: "s1", want: "whiteboard:s1"},
		{name: "discussion room", kind: KindDiscussion, sessionID: "s1", want: "discussion:s1"},
		{name: "breakout room", kind: KindBreakout, sessionID: "s1", subID: "r1", want: "breakout:s1:r1"},
		{name: "breakout without sub id", kind: KindBreakout, sessionID: "s1", wantErr: true},
		{name: "session with sub id", kind: KindSession, sessionID: "s1", subID: "r1", wantErr: true},
		{name: "unknown kind", kind: "lobby", sessionID: "s1", wantErr: true},
		{name: "bad session id", kind: KindSession, sessionID: "s 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Name(tt.kind, tt.sessionID, tt.subID)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
