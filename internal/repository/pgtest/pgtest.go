// Package pgtest connects repository tests to a real Postgres named by PG_DSN.
package pgtest

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// schemaLockID serializes schema setup between test binaries running in parallel
const schemaLockID = 727_001

// Connect returns a pool with the schema applied.
// The test is skipped when PG_DSN is unset or the database is unreachable.
func Connect(t testing.TB) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)

	applySchema(t, pool)
	return pool
}

func applySchema(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	schema, err := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)

	ctx := context.Background()
	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	_, err = conn.Exec(ctx, "SELECT pg_advisory_lock($1)", schemaLockID)
	require.NoError(t, err)
	defer conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", schemaLockID) //nolint:errcheck

	// No arguments, so pgx sends the whole file over the simple protocol
	_, err = conn.Exec(ctx, string(schema))
	require.NoError(t, err)
}

// Instant returns a whole-second time far in the future that no other test run picks
func Instant() time.Time {
	base := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(rand.Int64N(1_000_000_000)) * time.Second)
}

// Login returns a unique login for a throwaway user
func Login(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// DeleteRounds removes the rounds and their bets when the test ends
func DeleteRounds(t testing.TB, pool *pgxpool.Pool, ids ...uuid.UUID) {
	t.Helper()
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, "DELETE FROM bets WHERE round_id = ANY($1::uuid[])", keys)
		_, _ = pool.Exec(ctx, "DELETE FROM rounds WHERE id = ANY($1::uuid[])", keys)
	})
}

// DeleteUser removes the user with its manual bets and stats when the test ends
func DeleteUser(t testing.TB, pool *pgxpool.Pool, id int) {
	t.Helper()
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, "DELETE FROM manual_bets WHERE user_id = $1", id)
		_, _ = pool.Exec(ctx, "DELETE FROM user_stats WHERE user_id = $1", id)
		_, _ = pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	})
}
