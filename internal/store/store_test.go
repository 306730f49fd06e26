package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"classhub/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classhub_test.db")
	s, err := Open(slog.New(slog.NewTextHandler(io.Discard, nil)), path, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSession(id, name string) *types.Session {
	return &types.Session{
		ID:        id,
		Name:      name,
		CreatedBy: "instructor-1",
		Status:    types.StatusScheduled,
		CreatedAt: time.Now().UTC(),
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := newSession("s1", "Intro to Databases")
	require.NoError(t, s.CreateSession(ctx, want))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, want.CreatedBy, got.CreatedBy)
	require.Equal(t, types.StatusScheduled, got.Status)
	require.Nil(t, got.StartTime)
	require.Nil(t, got.EndTime)
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetSession(context.Background(), "nope")
	require.ErrorIs(t, err, types.ErrSessionNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := newSession("s1", "Monday")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := newSession("s2", "Tuesday")
	require.NoError(t, s.CreateSession(ctx, older))
	require.NoError(t, s.CreateSession(ctx, newer))

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "s2", sessions[0].ID)
	require.Equal(t, "s1", sessions[1].ID)
}

func TestStore_UpdateName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newSession("s1", "Draft")))
	require.NoError(t, s.UpdateSessionName(ctx, "s1", "Final"))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Final", got.Name)

	require.ErrorIs(t, s.UpdateSessionName(ctx, "nope", "x"), types.ErrSessionNotFound)
}

func TestStore_StatusStampsTimestamps(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newSession("s1", "Lab")))

	startedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateSessionStatus(ctx, "s1", types.StatusActive, startedAt))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, types.StatusActive, got.Status)
	require.NotNil(t, got.StartTime)
	require.Nil(t, got.EndTime)

	endedAt := startedAt.Add(50 * time.Minute)
	require.NoError(t, s.UpdateSessionStatus(ctx, "s1", types.StatusCompleted, endedAt))

	got, err = s.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, got.Status)
	require.NotNil(t, got.StartTime)
	require.NotNil(t, got.EndTime)

	require.ErrorIs(t, s.UpdateSessionStatus(ctx, "nope", types.StatusActive, startedAt), types.ErrSessionNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newSession("s1", "Gone Soon")))
	require.NoError(t, s.DeleteSession(ctx, "s1"))

	_, err := s.GetSession(ctx, "s1")
	require.ErrorIs(t, err, types.ErrSessionNotFound)

	require.ErrorIs(t, s.DeleteSession(ctx, "s1"), types.ErrSessionNotFound)
}

func TestStore_ConcurrentWrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			errs <- s.CreateSession(ctx, newSession(
				"s-"+string(rune('a'+i)), "Section"))
		}(i)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, n)
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.db")
	s, err := Open(slog.New(slog.NewTextHandler(io.Discard, nil)), path, time.Second)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
