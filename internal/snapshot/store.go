// Package snapshot caches tool results so answers can be composed without
// hitting the tenancy APIs. A snapshot is the verbatim JSON result of one
// tool run, keyed by tool name, and is considered usable until its TTL
// elapses.
//
// Two implementations are provided: an in-memory store for single-process
// use and tests, and a Postgres store for snapshots shared across hosts or
// warmed by a scheduled job.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// DefaultTTL is how long a snapshot stays usable. Tenancy inventories and
// month-to-date costs move slowly; half an hour keeps cached answers honest
// without re-querying on every question.
const DefaultTTL = 30 * time.Minute

// ErrNotFound is returned when no snapshot exists for the requested tool.
var ErrNotFound = errors.New("snapshot: not found")

// ErrStale is returned when a snapshot exists but its TTL has elapsed.
var ErrStale = errors.New("snapshot: expired")

// Snapshot is one cached tool result.
type Snapshot struct {
	// Tool is the tool name the result came from, e.g. "getCostSummary".
	Tool string

	// Result is the tool's JSON result, stored verbatim.
	Result json.RawMessage

	// TakenAt is when the tool was executed.
	TakenAt time.Time
}

// Store persists tool snapshots. Implementations must be safe for concurrent
// use.
type Store interface {
	// Put stores snap, replacing any previous snapshot for the same tool.
	Put(ctx context.Context, snap Snapshot) error

	// Get returns the snapshot for tool if one exists and is younger than
	// ttl. Returns ErrNotFound when absent and ErrStale when expired.
	Get(ctx context.Context, tool string, ttl time.Duration) (Snapshot, error)
}
