// ABOUTME: Tests for the state accessor's default-IDLE and copy semantics
// ABOUTME: Runs against an in-memory repository

package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	states map[string]*UserState
}

func newMemRepo() *memRepo {
	return &memRepo{states: make(map[string]*UserState)}
}

func (r *memRepo) Get(ctx context.Context, userID string) (*UserState, error) {
	st, ok := r.states[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return st.Clone(), nil
}

func (r *memRepo) Save(ctx context.Context, st *UserState) error {
	r.states[st.UserID] = st.Clone()
	return nil
}

func (r *memRepo) Delete(ctx context.Context, userID string) error {
	if _, ok := r.states[userID]; !ok {
		return ErrNotFound
	}
	delete(r.states, userID)
	return nil
}

func TestAccessor_AbsentUserReadsIdle(t *testing.T) {
	a := NewAccessor(newMemRepo())

	status, err := a.Status(context.Background(), "U001")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, status)
}

func TestAccessor_SetStatusPreservesContext(t *testing.T) {
	a := NewAccessor(newMemRepo())
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, &UserState{
		UserID:  "U001",
		Status:  StatusAwaitingLeaveReason,
		Context: map[string]string{"leave_message_log_id": "log-7"},
	}))
	require.NoError(t, a.SetStatus(ctx, "U001", StatusAwaitingContentsName))

	st, err := a.Get(ctx, "U001")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingContentsName, st.Status)
	assert.Equal(t, "log-7", st.Context["leave_message_log_id"])
}

func TestAccessor_ResetMissingRowIsNotAnError(t *testing.T) {
	a := NewAccessor(newMemRepo())
	assert.NoError(t, a.Reset(context.Background(), "U404"))
}

func TestAccessor_ResetReturnsUserToIdle(t *testing.T) {
	a := NewAccessor(newMemRepo())
	ctx := context.Background()

	require.NoError(t, a.SetStatus(ctx, "U001", StatusAwaitingTAQuestion))
	require.NoError(t, a.Reset(ctx, "U001"))

	status, err := a.Status(ctx, "U001")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, status)
}

func TestUserState_CloneDoesNotAliasContext(t *testing.T) {
	orig := &UserState{
		UserID:  "U001",
		Status:  StatusIdle,
		Context: map[string]string{"k": "v"},
	}

	clone := orig.Clone()
	clone.Context["k"] = "mutated"
	assert.Equal(t, "v", orig.Context["k"])
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{
		StatusIdle, StatusAwaitingRegistration, StatusAwaitingLeaveReason,
		StatusAwaitingTAQuestion, StatusAwaitingContentsName, StatusAwaitingRegradeReason,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Status("AWAITING_SOMETHING_ELSE").Valid())
}
