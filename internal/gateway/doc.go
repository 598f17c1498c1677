// ABOUTME: Package documentation for the gateway orchestrator
// ABOUTME: Describes component wiring and the shutdown order

// Package gateway assembles the full service: SQLite store, lazy Moodle
// connection manager, LINE API client, business handlers, router, worker
// pool, and the HTTP server exposing /webhook, /api/grades/publish, and
// /healthz.
//
// Shutdown is ordered: the HTTP server stops first so no new deliveries
// arrive, the worker pool drains within the configured grace period, and
// only then are the tunnel and store closed out from under the workers.
package gateway
