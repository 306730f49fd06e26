// Package store persists session records in SQLite. The records belong to
// the CRUD surface; the real-time core treats them as externally owned and
// only reads or advances their status.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"classhub/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_by TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'scheduled',
	created_at TIMESTAMP NOT NULL,
	start_time TIMESTAMP,
	end_time   TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
`

// Store wraps the SQLite database. Writes are funneled through a single
// goroutine; SQLite serializes writers anyway, and one writer avoids
// SQLITE_BUSY contention under concurrent CRUD calls. Reads go straight
// to the pooled connections.
type Store struct {
	log    *slog.Logger
	db     *sql.DB
	writes chan writeOp
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type writeOp struct {
	fn     func(*sql.DB) error
	result chan error
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(log *slog.Logger, path string, busyTimeout time.Duration) (*Store, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on", path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{
		log:    log,
		db:     db,
		writes: make(chan writeOp, 64),
	}
	s.wg.Add(1)
	go s.writeLoop()

	return s, nil
}

func (s *Store) writeLoop() {
	defer s.wg.Done()
	for op := range s.writes {
		op.result <- op.fn(s.db)
	}
}

func (s *Store) write(ctx context.Context, fn func(*sql.DB) error) error {
	op := writeOp{fn: fn, result: make(chan error, 1)}
	select {
	case s.writes <- op:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains pending writes and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.writes)
	s.wg.Wait()
	return s.db.Close()
}

// CreateSession inserts a new session record.
func (s *Store) CreateSession(ctx context.Context, session *types.Session) error {
	return s.write(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT INTO sessions (id, name, created_by, status, created_at, start_time, end_time)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			session.ID, session.Name, session.CreatedBy, session.Status,
			session.CreatedAt, session.StartTime, session.EndTime)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
}

// GetSession returns one session record by id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, status, created_at, start_time, end_time
		 FROM sessions WHERE id = ?`, sessionID)
	return scanSession(row)
}

// ListSessions returns all session records, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*types.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_by, status, created_at, start_time, end_time
		 FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*types.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// UpdateSessionName renames a session record.
func (s *Store) UpdateSessionName(ctx context.Context, sessionID, name string) error {
	return s.write(ctx, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE sessions SET name = ? WHERE id = ?`, name, sessionID)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		return requireRow(res, sessionID)
	})
}

// UpdateSessionStatus advances a session's status and stamps the matching
// timestamp column. Guarding which transitions are legal is the lifecycle
// manager's job, not the store's.
func (s *Store) UpdateSessionStatus(ctx context.Context, sessionID, status string, at time.Time) error {
	return s.write(ctx, func(db *sql.DB) error {
		var (
			res sql.Result
			err error
		)
		switch status {
		case types.StatusActive:
			res, err = db.ExecContext(ctx, `UPDATE sessions SET status = ?, start_time = ? WHERE id = ?`, status, at, sessionID)
		case types.StatusCompleted:
			res, err = db.ExecContext(ctx, `UPDATE sessions SET status = ?, end_time = ? WHERE id = ?`, status, at, sessionID)
		default:
			res, err = db.ExecContext(ctx, `UPDATE sessions SET status = ? WHERE id = ?`, status, sessionID)
		}
		if err != nil {
			return fmt.Errorf("update session status: %w", err)
		}
		return requireRow(res, sessionID)
	})
}

// DeleteSession removes a session record.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.write(ctx, func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return requireRow(res, sessionID)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*types.Session, error) {
	var session types.Session
	var start, end sql.NullTime
	err := row.Scan(&session.ID, &session.Name, &session.CreatedBy, &session.Status,
		&session.CreatedAt, &start, &end)
	if err == sql.ErrNoRows {
		return nil, types.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if start.Valid {
		session.StartTime = &start.Time
	}
	if end.Valid {
		session.EndTime = &end.Time
	}
	return &session, nil
}

func requireRow(res sql.Result, sessionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, types.ErrSessionNotFound)
	}
	return nil
}
