package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// testDSN returns the test database DSN from the environment, or skips the
// test if TENVOY_TEST_POSTGRES_DSN is not set.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TENVOY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TENVOY_TEST_POSTGRES_DSN not set, skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestPostgresStore creates a fresh [PostgresStore] with a clean schema.
// It calls t.Cleanup to close the store when the test finishes.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := testDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	defer pool.Close()
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS tool_snapshots"); err != nil {
		t.Fatalf("drop schema: %v", err)
	}

	store, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestPostgresPutGetRoundTrip(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	taken := time.Now().UTC()
	snap := Snapshot{
		Tool:    "getPublicIpSummary",
		Result:  json.RawMessage(`{"total_count":5,"by_scope":{"EPHEMERAL":3,"RESERVED":2}}`),
		TakenAt: taken,
	}
	if err := store.Put(ctx, snap); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "getPublicIpSummary", DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}

	// JSONB round-trips may reformat, so compare decoded values.
	var decoded struct {
		TotalCount int `json:"total_count"`
	}
	if err := json.Unmarshal(got.Result, &decoded); err != nil {
		t.Fatalf("stored result is not valid JSON: %v", err)
	}
	if decoded.TotalCount != 5 {
		t.Errorf("total_count = %d, want 5", decoded.TotalCount)
	}
	if diff := got.TakenAt.Sub(taken); diff > time.Second || diff < -time.Second {
		t.Errorf("taken_at = %v, want within 1s of %v", got.TakenAt, taken)
	}
}

func TestPostgresGetMissing(t *testing.T) {
	store := newTestPostgresStore(t)

	_, err := store.Get(context.Background(), "getCostSummary", DefaultTTL)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresPutReplaces(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	first := Snapshot{Tool: "getCostSummary", Result: json.RawMessage(`{"total_cost":1}`), TakenAt: time.Now()}
	if err := store.Put(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := Snapshot{Tool: "getCostSummary", Result: json.RawMessage(`{"total_cost":2}`), TakenAt: time.Now()}
	if err := store.Put(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "getCostSummary", DefaultTTL)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		TotalCost float64 `json:"total_cost"`
	}
	if err := json.Unmarshal(got.Result, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.TotalCost != 2 {
		t.Errorf("total_cost = %v, want the replacement value 2", decoded.TotalCost)
	}
}

func TestPostgresGetStale(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	old := Snapshot{
		Tool:    "getCloudGuardSummary",
		Result:  json.RawMessage(`{}`),
		TakenAt: time.Now().Add(-31 * time.Minute),
	}
	if err := store.Put(ctx, old); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(ctx, "getCloudGuardSummary", 30*time.Minute); !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}

	// A non-positive TTL disables expiry.
	if _, err := store.Get(ctx, "getCloudGuardSummary", 0); err != nil {
		t.Fatalf("err = %v, want snapshot with expiry disabled", err)
	}
}
