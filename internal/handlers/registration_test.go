// ABOUTME: Tests for the identity-bootstrap flow
// ABOUTME: Covers roster verification, course matching, conflicts, and follow

package handlers

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseline/gateway/internal/moodle"
	"github.com/courseline/gateway/internal/state"
	"github.com/courseline/gateway/internal/store"
)

func newRegistrationFixture(t *testing.T) (*Registration, *store.SQLiteStore, *fakeLine, *fakeRoster) {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, s.UpsertCourse(context.Background(), &store.Course{
		ContextTitle: "資料結構", InProgress: true,
	}))

	roster := &fakeRoster{
		infos: map[string]*moodle.StudentInfo{
			"b10901001": {MoodleID: 42, StudentID: "b10901001", FullName: "王小明"},
		},
		enrollments: map[string][]*moodle.Enrollment{
			"b10901001": {
				{CourseFullName: "已結束的課", RoleID: 5, MoodleID: 42, FullName: "王小明"},
				{CourseFullName: "資料結構", RoleID: 5, MoodleID: 42, FullName: "王小明"},
			},
		},
	}
	line := &fakeLine{}
	h := NewRegistration(roster, s, s, state.NewAccessor(s), s, line, line, "richmenu-main", slog.Default())
	return h, s, line, roster
}

func TestRegistration_BindsVerifiedStudent(t *testing.T) {
	h, s, line, _ := newRegistrationFixture(t)
	ctx := context.Background()

	require.NoError(t, h.RegisterStudent(ctx, "U001", " b10901001 ", "rt"))

	bound, err := s.FindByLineID(ctx, "U001")
	require.NoError(t, err)
	assert.Equal(t, "b10901001", bound.StudentID)
	assert.Equal(t, "王小明", bound.Name)
	assert.Equal(t, "資料結構", bound.ContextTitle, "must bind the in-progress course, not the finished one")
	assert.True(t, bound.Registered())

	assert.Equal(t, []string{"U001<-richmenu-main"}, line.links)
	require.Len(t, line.replies, 1)
	assert.Contains(t, line.replies[0], "王小明")
}

func TestRegistration_UnknownStudentID(t *testing.T) {
	h, s, line, _ := newRegistrationFixture(t)
	ctx := context.Background()

	require.NoError(t, h.RegisterStudent(ctx, "U001", "b99999999", "rt"))

	assert.Equal(t, []string{msgStudentUnknown}, line.replies)
	_, err := s.FindByLineID(ctx, "U001")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegistration_NoInProgressCourseMatch(t *testing.T) {
	h, _, line, roster := newRegistrationFixture(t)
	roster.enrollments["b10901001"] = []*moodle.Enrollment{
		{CourseFullName: "已結束的課", RoleID: 5, MoodleID: 42, FullName: "王小明"},
	}

	require.NoError(t, h.RegisterStudent(context.Background(), "U001", "b10901001", "rt"))
	assert.Equal(t, []string{msgNotEnrolled}, line.replies)
}

func TestRegistration_SecondAccountGetsAlreadyBound(t *testing.T) {
	h, _, line, _ := newRegistrationFixture(t)
	ctx := context.Background()

	require.NoError(t, h.RegisterStudent(ctx, "U001", "b10901001", "rt-1"))
	require.NoError(t, h.RegisterStudent(ctx, "U002", "b10901001", "rt-2"))

	assert.Equal(t, msgAlreadyBound, line.replies[len(line.replies)-1])
}

func TestRegistration_EmptyInputReprompts(t *testing.T) {
	h, _, line, _ := newRegistrationFixture(t)
	require.NoError(t, h.RegisterStudent(context.Background(), "U001", "   ", "rt"))
	assert.Equal(t, []string{msgAskStudentID}, line.replies)
}

func TestRegistration_RosterFailureRepliesBusy(t *testing.T) {
	h, _, line, roster := newRegistrationFixture(t)
	roster.err = assert.AnError

	err := h.RegisterStudent(context.Background(), "U001", "b10901001", "rt")
	require.Error(t, err)
	assert.Equal(t, []string{msgTryAgainLater}, line.replies)
}

func TestRegistration_FollowUnknownUserAsksForID(t *testing.T) {
	h, _, line, _ := newRegistrationFixture(t)
	require.NoError(t, h.HandleFollow(context.Background(), "U001", "rt"))
	assert.Equal(t, []string{msgAskStudentID}, line.replies)
	assert.Empty(t, line.links)
}

func TestRegistration_FollowBoundUserRelinksMenu(t *testing.T) {
	h, s, line, _ := newRegistrationFixture(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, testStudent()))

	require.NoError(t, h.HandleFollow(ctx, "U001", "rt"))
	assert.Equal(t, []string{msgWelcomeBack}, line.replies)
	assert.Equal(t, []string{"U001<-richmenu-main"}, line.links)
}
