// ABOUTME: Leave-request flow: confirm template, reason prompt, persistence
// ABOUTME: Enforces one leave request per student per date

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/courseline/gateway/internal/state"
	"github.com/courseline/gateway/internal/store"
)

const stateKeyLeaveLogID = "leave_message_log_id"

// Leave runs the leave-request conversation.
type Leave struct {
	leaves  store.LeaveRepository
	states  *state.Accessor
	chatLog store.ChatLogger
	line    ConfirmReplier
	now     func() time.Time
	logger  *slog.Logger
}

// NewLeave creates the leave handler.
func NewLeave(leaves store.LeaveRepository, states *state.Accessor, chatLog store.ChatLogger, line ConfirmReplier, logger *slog.Logger) *Leave {
	if logger == nil {
		logger = slog.Default()
	}
	return &Leave{
		leaves:  leaves,
		states:  states,
		chatLog: chatLog,
		line:    line,
		now:     time.Now,
		logger:  logger.With("component", "leave"),
	}
}

// ApplyForLeave asks the user to confirm before anything is recorded. State
// is untouched until the confirm button comes back as a postback.
func (h *Leave) ApplyForLeave(ctx context.Context, student *store.Student, replyToken string) error {
	return h.line.ReplyConfirm(ctx, replyToken, msgLeaveConfirm,
		"確定", "[Action]confirm_to_leave",
		"取消", "[Action]cancel_to_leave",
	)
}

// AskLeaveReason transitions to AWAITING_LEAVE_REASON and prompts for the
// reason. The triggering postback's log id rides along in the state context
// so the final event entry can point back at it.
func (h *Leave) AskLeaveReason(ctx context.Context, student *store.Student, replyToken, messageLogID string) error {
	st, err := h.states.Get(ctx, student.LineUserID)
	if err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return err
	}

	next := st.Clone()
	next.Status = state.StatusAwaitingLeaveReason
	if next.Context == nil {
		next.Context = make(map[string]string)
	}
	next.Context[stateKeyLeaveLogID] = messageLogID
	if err := h.states.Set(ctx, next); err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return err
	}

	return h.line.ReplyText(ctx, replyToken, msgAskLeaveReason)
}

// SubmitLeaveReason records the leave request for today's date and returns
// the user to IDLE. A second request on the same date is rejected.
func (h *Leave) SubmitLeaveReason(ctx context.Context, student *store.Student, reason, replyToken string) error {
	leaveDate := h.now().Format("2006-01-02")

	err := h.leaves.CreateLeaveRequest(ctx, &store.LeaveRequest{
		StudentID:    student.StudentID,
		ContextTitle: student.ContextTitle,
		LeaveDate:    leaveDate,
		Reason:       reason,
	})
	if errors.Is(err, store.ErrDuplicateLeave) {
		h.reset(ctx, student.LineUserID)
		return h.line.ReplyText(ctx, replyToken, msgLeaveDuplicate)
	}
	if err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return fmt.Errorf("saving leave request: %w", err)
	}

	st, err := h.states.Get(ctx, student.LineUserID)
	var logID string
	if err == nil && st.Context != nil {
		logID = st.Context[stateKeyLeaveLogID]
	}
	if err := h.chatLog.LogEvent(ctx, &store.EventLogEntry{
		StudentID:    student.StudentID,
		Type:         store.EventLeave,
		MessageLogID: logID,
		ContextTitle: student.ContextTitle,
	}); err != nil {
		h.logger.Warn("failed to log leave event", "student_id", student.StudentID, "error", err)
	}

	h.reset(ctx, student.LineUserID)
	h.logger.Info("leave request recorded",
		"student_id", student.StudentID,
		"leave_date", leaveDate,
	)
	return h.line.ReplyText(ctx, replyToken, msgLeaveAccepted)
}

func (h *Leave) reset(ctx context.Context, userID string) {
	if err := h.states.Reset(ctx, userID); err != nil {
		h.logger.Warn("failed to reset user state", "user_id", userID, "error", err)
	}
}
