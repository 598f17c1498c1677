// ABOUTME: Package documentation for conversation state management
// ABOUTME: Describes the status enum, implicit-IDLE rule, and write semantics

// Package state holds the per-user conversation state that drives the bot's
// multi-turn flows.
//
// A user with no persisted row is in StatusIdle. Every multi-turn flow ends
// by returning the user to StatusIdle, either on completion or cancellation.
// Reads and writes for one user serialize through the store's per-key upsert;
// the read-modify-write in the accessor is deliberately not transactional
// and resolves races as last-writer-wins.
package state
