// ABOUTME: Tests for the leave-request flow
// ABOUTME: Covers confirm prompt, reason capture, duplicates, and state resets

package handlers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseline/gateway/internal/state"
	"github.com/courseline/gateway/internal/store"
)

func newLeaveFixture(t *testing.T) (*Leave, *state.Accessor, *store.SQLiteStore, *fakeLine) {
	t.Helper()
	s := newTestStore(t)
	acc := state.NewAccessor(s)
	line := &fakeLine{}
	h := NewLeave(s, acc, s, line, slog.Default())
	h.now = func() time.Time { return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC) }
	return h, acc, s, line
}

func TestLeave_ApplySendsConfirmTemplate(t *testing.T) {
	h, acc, _, line := newLeaveFixture(t)

	require.NoError(t, h.ApplyForLeave(context.Background(), testStudent(), "rt"))

	require.Len(t, line.confirms, 1)
	assert.Contains(t, line.confirms[0], "[Action]confirm_to_leave")
	assert.Contains(t, line.confirms[0], "[Action]cancel_to_leave")
	requireStatus(t, acc, "U001", state.StatusIdle)
}

func TestLeave_AskReasonArmsNextTurn(t *testing.T) {
	h, acc, _, line := newLeaveFixture(t)
	ctx := context.Background()

	require.NoError(t, h.AskLeaveReason(ctx, testStudent(), "rt", "log-7"))

	requireStatus(t, acc, "U001", state.StatusAwaitingLeaveReason)
	st, err := acc.Get(ctx, "U001")
	require.NoError(t, err)
	assert.Equal(t, "log-7", st.Context[stateKeyLeaveLogID])
	assert.Equal(t, []string{msgAskLeaveReason}, line.replies)
}

func TestLeave_SubmitReasonPersistsAndResets(t *testing.T) {
	h, acc, s, line := newLeaveFixture(t)
	ctx := context.Background()

	require.NoError(t, h.AskLeaveReason(ctx, testStudent(), "rt-1", "log-7"))
	require.NoError(t, h.SubmitLeaveReason(ctx, testStudent(), "生病了", "rt-2"))

	requests, err := s.ListLeaveRequests(ctx, "b10901001")
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "2026-03-10", requests[0].LeaveDate)
	assert.Equal(t, "生病了", requests[0].Reason)

	requireStatus(t, acc, "U001", state.StatusIdle)
	assert.Equal(t, msgLeaveAccepted, line.replies[len(line.replies)-1])
}

func TestLeave_SecondRequestSameDateRejected(t *testing.T) {
	h, acc, s, line := newLeaveFixture(t)
	ctx := context.Background()

	require.NoError(t, h.SubmitLeaveReason(ctx, testStudent(), "生病了", "rt-1"))
	require.NoError(t, h.SubmitLeaveReason(ctx, testStudent(), "還是生病", "rt-2"))

	requests, err := s.ListLeaveRequests(ctx, "b10901001")
	require.NoError(t, err)
	assert.Len(t, requests, 1, "duplicate date must not create a second row")
	assert.Equal(t, msgLeaveDuplicate, line.replies[len(line.replies)-1])
	requireStatus(t, acc, "U001", state.StatusIdle)
}

func TestLeave_NewDateAllowsNewRequest(t *testing.T) {
	h, _, s, _ := newLeaveFixture(t)
	ctx := context.Background()

	require.NoError(t, h.SubmitLeaveReason(ctx, testStudent(), "生病了", "rt-1"))
	h.now = func() time.Time { return time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC) }
	require.NoError(t, h.SubmitLeaveReason(ctx, testStudent(), "家裡有事", "rt-2"))

	requests, err := s.ListLeaveRequests(ctx, "b10901001")
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}
