// ABOUTME: Conversation state types and the repository contract for persistence
// ABOUTME: Defines the status enum driving multi-turn flows and the UserState record

package state

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no state row exists for a user.
var ErrNotFound = errors.New("user state not found")

// Status is the "what are we waiting for from this user" marker.
type Status string

const (
	StatusIdle                  Status = "IDLE"
	StatusAwaitingRegistration  Status = "AWAITING_REGISTRATION_ID"
	StatusAwaitingLeaveReason   Status = "AWAITING_LEAVE_REASON"
	StatusAwaitingTAQuestion    Status = "AWAITING_TA_QUESTION"
	StatusAwaitingContentsName  Status = "AWAITING_CONTENTS_NAME"
	StatusAwaitingRegradeReason Status = "AWAITING_REGRADE_REASON"
)

// Valid reports whether s is one of the defined status values.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusAwaitingRegistration, StatusAwaitingLeaveReason,
		StatusAwaitingTAQuestion, StatusAwaitingContentsName, StatusAwaitingRegradeReason:
		return true
	}
	return false
}

// UserState is the persisted per-user conversation state. Context is an
// opaque key-value bag owned by the handler that set the status; readers
// must copy it before mutating (see Clone).
type UserState struct {
	UserID  string
	Status  Status
	Context map[string]string
}

// Clone returns a deep copy. Handlers treat state as copy-on-write to avoid
// aliasing the map across concurrent reads.
func (s *UserState) Clone() *UserState {
	out := &UserState{
		UserID: s.UserID,
		Status: s.Status,
	}
	if s.Context != nil {
		out.Context = make(map[string]string, len(s.Context))
		for k, v := range s.Context {
			out.Context[k] = v
		}
	}
	return out
}

// Repository is the persistence contract for conversation state. Save is an
// upsert with per-key last-writer-wins semantics.
type Repository interface {
	Get(ctx context.Context, userID string) (*UserState, error)
	Save(ctx context.Context, st *UserState) error
	Delete(ctx context.Context, userID string) error
}
