// ABOUTME: Package documentation for the lazy tunneled connection manager
// ABOUTME: Explains the absent/established lifecycle and idle-close debounce

// Package remote manages the connection to the Moodle database, which sits
// behind an SSH tunnel and is queried in bursts separated by long idle
// stretches.
//
// The lifecycle is absent → established → absent: the first acquisition
// establishes the tunnel and connection synchronously, later acquisitions
// reuse them after a health check, and a debounced timer tears everything
// down once no acquisition has happened for the idle window. A failed
// establish resets the manager fully; retry policy belongs to the caller.
//
// The borrowed *sql.DB is safe for concurrent use, so the manager's mutex
// guards only lifecycle transitions, never query execution.
package remote
