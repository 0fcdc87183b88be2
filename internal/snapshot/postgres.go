package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ddlSnapshots creates the snapshot table. Results are stored as JSONB so
// operators can inspect cached data with plain SQL.
const ddlSnapshots = `
CREATE TABLE IF NOT EXISTS tool_snapshots (
    tool      TEXT         PRIMARY KEY,
    result    JSONB        NOT NULL,
    taken_at  TIMESTAMPTZ  NOT NULL
);
`

// Compile-time assertion that PostgresStore satisfies the Store interface.
var _ Store = (*PostgresStore)(nil)

// PostgresStore is a PostgreSQL-backed implementation of [Store]. All
// connections come from a single [pgxpool.Pool].
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn, applies the schema, and returns the
// store. Call [PostgresStore.Close] when done.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("snapshot: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlSnapshots); err != nil {
		pool.Close()
		return nil, fmt.Errorf("snapshot: apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Put implements [Store.Put] with an upsert on the tool name.
func (s *PostgresStore) Put(ctx context.Context, snap Snapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tool_snapshots (tool, result, taken_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tool) DO UPDATE
		SET result = EXCLUDED.result, taken_at = EXCLUDED.taken_at`,
		snap.Tool, snap.Result, snap.TakenAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("snapshot: put %s: %w", snap.Tool, err)
	}
	return nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, tool string, ttl time.Duration) (Snapshot, error) {
	snap := Snapshot{Tool: tool}
	err := s.pool.QueryRow(ctx,
		`SELECT result, taken_at FROM tool_snapshots WHERE tool = $1`,
		tool,
	).Scan(&snap.Result, &snap.TakenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: get %s: %w", tool, err)
	}
	if ttl > 0 && time.Since(snap.TakenAt) > ttl {
		return Snapshot{}, ErrStale
	}
	return snap, nil
}
