// ABOUTME: Lazy connection manager for the tunnel-gated Moodle database
// ABOUTME: Establishes on first use, reuses while busy, auto-closes after idle

package remote

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultIdleTimeout is how long an established connection survives without
// acquisitions before it is torn down.
const DefaultIdleTimeout = 60 * time.Second

// healthCheckTimeout bounds the ping that precedes reuse of a handle.
const healthCheckTimeout = 3 * time.Second

// handle bundles the database connection with the tunnel carrying it.
// Both are torn down together.
type handle struct {
	db     *sql.DB
	tunnel io.Closer // nil when tunneling is disabled
}

func (h *handle) close() {
	if h.db != nil {
		h.db.Close()
	}
	if h.tunnel != nil {
		h.tunnel.Close()
	}
}

// Manager owns an optional tunneled connection to the remote database.
// Access is bursty-then-idle: dozens of roster lookups at the start of a
// term, then days of nothing. Holding the tunnel open wastes a scarce
// remote slot, while re-establishing per call costs hundreds of
// milliseconds, so the manager amortizes setup across a burst and releases
// during idle periods via a debounced timer.
type Manager struct {
	mu          sync.Mutex
	establish   func(ctx context.Context) (*handle, error)
	handle      *handle
	timer       *time.Timer
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewManager creates a Manager for the given remote configuration. No
// connection is made until the first WithConn call.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Manager{
		establish:   func(ctx context.Context) (*handle, error) { return establishTunneled(ctx, cfg) },
		idleTimeout: idle,
		logger:      logger.With("component", "remote"),
	}
}

// WithConn acquires the shared connection, establishing the tunnel and
// database handle if none is active, and runs fn with it. Every successful
// acquisition re-arms the idle-close timer. fn's error is returned as-is;
// the manager never retries on its own. Callers borrow the handle for one
// unit of work and must not retain it past fn's return.
func (m *Manager) WithConn(ctx context.Context, fn func(db *sql.DB) error) error {
	db, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	return fn(db)
}

// acquire returns the active database handle, creating or replacing it as
// needed. All lifecycle transitions happen under the lock; the returned
// handle is used outside it.
func (m *Manager) acquire(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := m.handle.db.PingContext(pingCtx)
		cancel()
		if err != nil {
			// Stale handle: discard and fall through to a fresh establish
			m.logger.Warn("remote connection failed health check, reconnecting", "error", err)
			m.teardownLocked()
		}
	}

	if m.handle == nil {
		h, err := m.establish(ctx)
		if err != nil {
			// No partial handle survives a failed establish
			return nil, fmt.Errorf("establishing remote connection: %w", err)
		}
		m.handle = h
		m.logger.Info("remote connection established", "idle_timeout", m.idleTimeout)
	}

	m.scheduleCloseLocked()
	return m.handle.db, nil
}

// scheduleCloseLocked re-arms the idle timer, cancelling any previous one.
// Must be called with mu held.
func (m *Manager) scheduleCloseLocked() {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.idleTimeout, func() {
		m.logger.Info("remote connection idle, closing")
		m.Close()
	})
}

// Close tears down the tunnel and database connection if present. It is
// idempotent and safe to call concurrently with WithConn.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.teardownLocked()
}

// teardownLocked closes and clears the current handle. Must be called with
// mu held.
func (m *Manager) teardownLocked() {
	if m.handle != nil {
		m.handle.close()
		m.handle = nil
	}
}
