// ABOUTME: Tests for the lazy connection manager lifecycle
// ABOUTME: Covers reuse, idle expiry, failed establish reset, and stale handles

package remote

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type fakeTunnel struct {
	closed atomic.Bool
}

func (f *fakeTunnel) Close() error {
	f.closed.Store(true)
	return nil
}

// testManager returns a Manager whose establish opens an in-memory database
// and counts invocations.
func testManager(t *testing.T, idle time.Duration) (*Manager, *atomic.Int32, *fakeTunnel) {
	t.Helper()

	var establishes atomic.Int32
	tunnel := &fakeTunnel{}

	m := &Manager{
		establish: func(ctx context.Context) (*handle, error) {
			db, err := sql.Open("sqlite", ":memory:")
			if err != nil {
				return nil, err
			}
			establishes.Add(1)
			return &handle{db: db, tunnel: tunnel}, nil
		},
		idleTimeout: idle,
		logger:      slog.Default(),
	}
	t.Cleanup(m.Close)
	return m, &establishes, tunnel
}

func TestManager_ReusesEstablishedConnection(t *testing.T) {
	m, establishes, _ := testManager(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := m.WithConn(ctx, func(db *sql.DB) error {
			return db.PingContext(ctx)
		})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), establishes.Load(), "back-to-back calls must share one establish")
}

func TestManager_IdleTimeoutClosesAndReestablishes(t *testing.T) {
	m, establishes, tunnel := testManager(t, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.WithConn(ctx, func(db *sql.DB) error { return nil }))
	assert.Equal(t, int32(1), establishes.Load())

	// Let the idle timer fire
	assert.Eventually(t, func() bool { return tunnel.closed.Load() },
		time.Second, 10*time.Millisecond, "idle timer should tear down the tunnel")

	require.NoError(t, m.WithConn(ctx, func(db *sql.DB) error { return nil }))
	assert.Equal(t, int32(2), establishes.Load(), "post-idle call must re-establish")
}

func TestManager_AcquireDebouncesIdleTimer(t *testing.T) {
	m, establishes, _ := testManager(t, 120*time.Millisecond)
	ctx := context.Background()

	// Keep acquiring at intervals shorter than the idle timeout; the timer
	// must be pushed back each time and never fire mid-burst.
	for i := 0; i < 4; i++ {
		require.NoError(t, m.WithConn(ctx, func(db *sql.DB) error { return nil }))
		time.Sleep(60 * time.Millisecond)
	}

	assert.Equal(t, int32(1), establishes.Load())
}

func TestManager_EstablishFailureLeavesStateAbsent(t *testing.T) {
	boom := errors.New("tunnel refused")
	calls := 0

	m := &Manager{
		establish: func(ctx context.Context) (*handle, error) {
			calls++
			if calls == 1 {
				return nil, boom
			}
			db, err := sql.Open("sqlite", ":memory:")
			if err != nil {
				return nil, err
			}
			return &handle{db: db}, nil
		},
		idleTimeout: time.Minute,
		logger:      slog.Default(),
	}
	t.Cleanup(m.Close)
	ctx := context.Background()

	err := m.WithConn(ctx, func(db *sql.DB) error { return nil })
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, m.handle, "no partial handle may survive a failed establish")

	// The caller's retry gets a clean second attempt
	assert.NoError(t, m.WithConn(ctx, func(db *sql.DB) error { return nil }))
}

func TestManager_StaleHandleReplacedTransparently(t *testing.T) {
	m, establishes, _ := testManager(t, time.Minute)
	ctx := context.Background()

	var first *sql.DB
	require.NoError(t, m.WithConn(ctx, func(db *sql.DB) error {
		first = db
		return nil
	}))

	// Kill the connection underneath the manager; the pre-reuse health
	// check must detect it and establish a replacement
	require.NoError(t, first.Close())

	err := m.WithConn(ctx, func(db *sql.DB) error { return db.PingContext(ctx) })
	require.NoError(t, err)
	assert.Equal(t, int32(2), establishes.Load())
}

func TestManager_CloseIdempotent(t *testing.T) {
	m, _, tunnel := testManager(t, time.Minute)
	require.NoError(t, m.WithConn(context.Background(), func(db *sql.DB) error { return nil }))

	m.Close()
	assert.True(t, tunnel.closed.Load())
	m.Close() // second close is a no-op
}

func TestManager_PropagatesCallbackError(t *testing.T) {
	m, _, _ := testManager(t, time.Minute)
	boom := errors.New("query failed")

	err := m.WithConn(context.Background(), func(db *sql.DB) error { return boom })
	assert.ErrorIs(t, err, boom)
}
