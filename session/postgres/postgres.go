// Package postgres implements a SessionStore on PostgreSQL for deployments
// that need durable session history.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showrunner-ai/showrunner/core"
)

// Store is a PostgreSQL-backed SessionStore. Turns carry a unique turn id so
// duplicate commits resolve to ON CONFLICT DO NOTHING.
type Store struct {
	db *pgxpool.Pool
}

// New connects to PostgreSQL and returns a session store.
func New(ctx context.Context, connStr string) (*Store, error) {
	if connStr == "" {
		return nil, errors.New("postgres connection string is required")
	}
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewFromPool wraps an existing pool.
func NewFromPool(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS turns (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq BIGSERIAL,
    payload JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS turns_session_idx ON turns (session_id, seq);
`

// CreateSchema ensures the session tables exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Create returns the session with the given id, inserting it on first use.
func (s *Store) Create(ctx context.Context, id string) (*core.Session, error) {
	sess := core.NewSession(id)
	meta, err := json.Marshal(sess.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO sessions (id, metadata, created_at, updated_at)
		VALUES ($1, $2::jsonb, $3, $3)
		ON CONFLICT (id) DO NOTHING
	`, id, meta, sess.Created)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s.Load(ctx, id)
}

// Load reads a session and its turn history in commit order.
func (s *Store) Load(ctx context.Context, id string) (*core.Session, error) {
	sess := &core.Session{ID: id}
	var meta []byte
	err := s.db.QueryRow(ctx, `
		SELECT metadata, created_at, updated_at FROM sessions WHERE id = $1
	`, id).Scan(&meta, &sess.Created, &sess.Updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if err := json.Unmarshal(meta, &sess.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT payload FROM turns WHERE session_id = $1 ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		var turn core.Turn
		if err := json.Unmarshal(payload, &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		sess.Turns = append(sess.Turns, turn)
	}
	return sess, rows.Err()
}

// Commit appends a committed turn. The turn id is the primary key, so a
// duplicate commit inserts nothing.
func (s *Store) Commit(ctx context.Context, sessionID string, turn core.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE sessions SET updated_at = NOW() WHERE id = $1
	`, sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrSessionNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO turns (id, session_id, payload, created_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (id) DO NOTHING
	`, turn.ID, sessionID, payload, turn.Created); err != nil {
		return fmt.Errorf("commit turn: %w", err)
	}
	return tx.Commit(ctx)
}

// List loads every session with its turn history, ordered by id.
func (s *Store) List(ctx context.Context) ([]*core.Session, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM sessions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions := make([]*core.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}
