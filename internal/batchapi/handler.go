// ABOUTME: Operator batch API: JWT-protected grade publication endpoint
// ABOUTME: Notifies bound students that new scores are available

package batchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/courseline/gateway/internal/store"
)

// Pusher is the slice of the messaging client the batch API needs.
type Pusher interface {
	PushText(ctx context.Context, to, text string) error
}

// PublishRequest is the body of POST /api/grades/publish.
type PublishRequest struct {
	ContextTitle string   `json:"context_title"`
	ContentsName string   `json:"contents_name"`
	StudentIDs   []string `json:"student_ids"`
}

// PublishResponse reports per-student publication outcomes.
type PublishResponse struct {
	Published int      `json:"published"`
	Skipped   []string `json:"skipped,omitempty"`
}

// Handler serves the operator batch API.
type Handler struct {
	students store.StudentRepository
	chatLog  store.ChatLogger
	pusher   Pusher
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewHandler creates the batch API handler.
func NewHandler(students store.StudentRepository, chatLog store.ChatLogger, pusher Pusher, verifier TokenVerifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		students: students,
		chatLog:  chatLog,
		pusher:   pusher,
		verifier: verifier,
		logger:   logger.With("component", "batchapi"),
	}
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// AuthMiddleware rejects requests without a valid operator token.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
		if errMsg != "" {
			writeJSONError(w, http.StatusUnauthorized, errMsg)
			return
		}

		operator, err := h.verifier.Verify(token)
		if err != nil {
			h.logger.Warn("rejected batch api token", "error", err)
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		h.logger.Info("batch api request", "operator", operator, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// ServePublish handles POST /api/grades/publish.
func (h *Handler) ServePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ContentsName == "" || len(req.StudentIDs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "contents_name and student_ids are required")
		return
	}

	resp := PublishResponse{}
	for _, studentID := range req.StudentIDs {
		if err := h.notifyStudent(r.Context(), &req, studentID); err != nil {
			h.logger.Warn("grade notification skipped",
				"student_id", studentID,
				"contents_name", req.ContentsName,
				"error", err,
			)
			resp.Skipped = append(resp.Skipped, studentID)
			continue
		}
		resp.Published++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// notifyStudent pushes the score-ready notification to one student and logs
// the publication event.
func (h *Handler) notifyStudent(ctx context.Context, req *PublishRequest, studentID string) error {
	student, err := h.students.FindByStudentID(ctx, studentID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("student not bound: %s", studentID)
	}
	if err != nil {
		return fmt.Errorf("looking up student: %w", err)
	}

	text := fmt.Sprintf("「%s」的成績已經公布囉！可以從選單查詢成績", req.ContentsName)
	if err := h.pusher.PushText(ctx, student.LineUserID, text); err != nil {
		return fmt.Errorf("pushing notification: %w", err)
	}

	if err := h.chatLog.LogEvent(ctx, &store.EventLogEntry{
		StudentID:    studentID,
		Type:         store.EventPublish,
		ContextTitle: req.ContextTitle,
	}); err != nil {
		h.logger.Warn("failed to log publish event", "student_id", studentID, "error", err)
	}
	return nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
