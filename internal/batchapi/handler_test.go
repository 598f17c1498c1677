// ABOUTME: Tests for the batch API handler and its JWT middleware
// ABOUTME: Covers 401 paths, publication fan-out, and per-student skips

package batchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseline/gateway/internal/store"
)

type fakePusher struct {
	pushes []string
	fail   map[string]bool
}

func (f *fakePusher) PushText(ctx context.Context, to, text string) error {
	if f.fail[to] {
		return errors.New("push rejected")
	}
	f.pushes = append(f.pushes, fmt.Sprintf("%s<-%s", to, text))
	return nil
}

const testJWTSecret = "batch-secret"

func newHandlerFixture(t *testing.T) (*Handler, *store.SQLiteStore, *fakePusher) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "gateway.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	pusher := &fakePusher{fail: map[string]bool{}}
	h := NewHandler(s, s, pusher, NewJWTVerifier([]byte(testJWTSecret)), slog.Default())
	return h, s, pusher
}

func bindStudent(t *testing.T, s *store.SQLiteStore, lineID, studentID string) {
	t.Helper()
	require.NoError(t, s.Create(context.Background(), &store.Student{
		LineUserID:   lineID,
		StudentID:    studentID,
		Name:         "學生" + studentID,
		ContextTitle: "資料結構",
		IsActive:     true,
	}))
}

func operatorToken(t *testing.T) string {
	t.Helper()
	token, err := NewJWTVerifier([]byte(testJWTSecret)).Generate("ta-01", time.Hour)
	require.NoError(t, err)
	return token
}

func postPublish(h *Handler, token string, body any) *httptest.ResponseRecorder {
	encoded, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/grades/publish", bytes.NewReader(encoded))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.AuthMiddleware(http.HandlerFunc(h.ServePublish)).ServeHTTP(rec, req)
	return rec
}

func TestPublish_NotifiesBoundStudents(t *testing.T) {
	h, s, pusher := newHandlerFixture(t)
	bindStudent(t, s, "U001", "b10901001")
	bindStudent(t, s, "U002", "b10901002")

	rec := postPublish(h, operatorToken(t), PublishRequest{
		ContextTitle: "資料結構",
		ContentsName: "作業一",
		StudentIDs:   []string{"b10901001", "b10901002"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PublishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Published)
	assert.Empty(t, resp.Skipped)

	require.Len(t, pusher.pushes, 2)
	assert.Contains(t, pusher.pushes[0], "U001<-")
	assert.Contains(t, pusher.pushes[0], "作業一")
}

func TestPublish_UnboundStudentSkippedNotFatal(t *testing.T) {
	h, s, pusher := newHandlerFixture(t)
	bindStudent(t, s, "U001", "b10901001")

	rec := postPublish(h, operatorToken(t), PublishRequest{
		ContentsName: "作業一",
		StudentIDs:   []string{"b10901001", "b99999999"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PublishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Published)
	assert.Equal(t, []string{"b99999999"}, resp.Skipped)
	assert.Len(t, pusher.pushes, 1)
}

func TestPublish_PushFailureSkipsStudent(t *testing.T) {
	h, s, pusher := newHandlerFixture(t)
	bindStudent(t, s, "U001", "b10901001")
	pusher.fail["U001"] = true

	rec := postPublish(h, operatorToken(t), PublishRequest{
		ContentsName: "作業一",
		StudentIDs:   []string{"b10901001"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp PublishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Published)
	assert.Equal(t, []string{"b10901001"}, resp.Skipped)
}

func TestPublish_MissingFieldsRejected(t *testing.T) {
	h, _, _ := newHandlerFixture(t)
	rec := postPublish(h, operatorToken(t), PublishRequest{ContentsName: "作業一"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_MissingHeader(t *testing.T) {
	h, _, _ := newHandlerFixture(t)
	rec := postPublish(h, "", PublishRequest{ContentsName: "作業一", StudentIDs: []string{"x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_WrongSecret(t *testing.T) {
	h, _, _ := newHandlerFixture(t)
	token, err := NewJWTVerifier([]byte("other-secret")).Generate("ta-01", time.Hour)
	require.NoError(t, err)

	rec := postPublish(h, token, PublishRequest{ContentsName: "作業一", StudentIDs: []string{"x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	h, _, _ := newHandlerFixture(t)
	token, err := NewJWTVerifier([]byte(testJWTSecret)).Generate("ta-01", -time.Minute)
	require.NoError(t, err)

	rec := postPublish(h, token, PublishRequest{ContentsName: "作業一", StudentIDs: []string{"x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier([]byte(testJWTSecret))
	token, err := v.Generate("ta-01", time.Hour)
	require.NoError(t, err)

	operator, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ta-01", operator)
}
