// ABOUTME: Accessor wrapping the state repository with default-IDLE semantics
// ABOUTME: Provides the get/set/reset operations used by the router and handlers

package state

import (
	"context"
	"errors"
	"fmt"
)

// Accessor provides conversation state access with the implicit-IDLE rule:
// a user with no persisted row is in StatusIdle.
type Accessor struct {
	repo Repository
}

// NewAccessor creates an Accessor over the given repository.
func NewAccessor(repo Repository) *Accessor {
	return &Accessor{repo: repo}
}

// Status returns the user's current status, or StatusIdle when no row exists.
func (a *Accessor) Status(ctx context.Context, userID string) (Status, error) {
	st, err := a.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return StatusIdle, nil
	}
	if err != nil {
		return StatusIdle, fmt.Errorf("getting user state: %w", err)
	}
	return st.Status, nil
}

// Get returns the full state record, or a fresh IDLE record when absent.
func (a *Accessor) Get(ctx context.Context, userID string) (*UserState, error) {
	st, err := a.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &UserState{UserID: userID, Status: StatusIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user state: %w", err)
	}
	return st, nil
}

// SetStatus transitions the user to status, preserving any existing context.
// The read-then-write is not transactional; competing events for one user
// resolve to whichever intent arrived last.
func (a *Accessor) SetStatus(ctx context.Context, userID string, status Status) error {
	st, err := a.Get(ctx, userID)
	if err != nil {
		return err
	}

	next := st.Clone()
	next.Status = status
	if err := a.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("saving user state: %w", err)
	}
	return nil
}

// Set persists a full state record as-is.
func (a *Accessor) Set(ctx context.Context, st *UserState) error {
	if err := a.repo.Save(ctx, st); err != nil {
		return fmt.Errorf("saving user state: %w", err)
	}
	return nil
}

// Reset returns the user to IDLE by deleting the row; a missing row is not
// an error.
func (a *Accessor) Reset(ctx context.Context, userID string) error {
	err := a.repo.Delete(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("resetting user state: %w", err)
	}
	return nil
}
