// ABOUTME: Shared fakes and fixtures for business handler tests
// ABOUTME: Records outbound messaging and serves a roster from fixed maps

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/courseline/gateway/internal/moodle"
	"github.com/courseline/gateway/internal/state"
	"github.com/courseline/gateway/internal/store"
)

// fakeLine records every outbound call instead of hitting the network.
type fakeLine struct {
	replies  []string
	pushes   []string
	confirms []string
	links    []string
	fail     bool
}

func (f *fakeLine) ReplyText(ctx context.Context, replyToken string, texts ...string) error {
	if f.fail {
		return errors.New("line api down")
	}
	f.replies = append(f.replies, texts...)
	return nil
}

func (f *fakeLine) PushText(ctx context.Context, to, text string) error {
	if f.fail {
		return errors.New("line api down")
	}
	f.pushes = append(f.pushes, fmt.Sprintf("%s<-%s", to, text))
	return nil
}

func (f *fakeLine) ReplyConfirm(ctx context.Context, replyToken, text, confirmLabel, confirmData, cancelLabel, cancelData string) error {
	if f.fail {
		return errors.New("line api down")
	}
	f.confirms = append(f.confirms, fmt.Sprintf("%s|%s|%s", text, confirmData, cancelData))
	return nil
}

func (f *fakeLine) LinkRichMenu(ctx context.Context, userID, richMenuID string) error {
	f.links = append(f.links, fmt.Sprintf("%s<-%s", userID, richMenuID))
	return nil
}

// fakeRoster serves Moodle lookups from fixed maps.
type fakeRoster struct {
	infos       map[string]*moodle.StudentInfo
	enrollments map[string][]*moodle.Enrollment
	err         error
}

func (f *fakeRoster) FindStudentInfo(ctx context.Context, studentID string) (*moodle.StudentInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.infos[studentID]
	if !ok {
		return nil, moodle.ErrStudentNotFound
	}
	return info, nil
}

func (f *fakeRoster) FindEnrollments(ctx context.Context, studentID string) ([]*moodle.Enrollment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.enrollments[studentID], nil
}

// newTestStore opens a real SQLite store in a temp dir.
func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "gateway.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testStudent() *store.Student {
	return &store.Student{
		LineUserID:   "U001",
		StudentID:    "b10901001",
		MoodleID:     42,
		Name:         "王小明",
		ContextTitle: "資料結構",
		Role:         5,
		IsActive:     true,
	}
}

func requireStatus(t *testing.T, acc *state.Accessor, userID string, want state.Status) {
	t.Helper()
	got, err := acc.Status(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
