// ABOUTME: Ask-TA flow: prompt for a question and forward it to the TA account
// ABOUTME: Questions are pushed out-of-band; the student gets an acknowledgment

package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/courseline/gateway/internal/state"
	"github.com/courseline/gateway/internal/store"
)

// Inquiry forwards student questions to the TA.
type Inquiry struct {
	states   *state.Accessor
	chatLog  store.ChatLogger
	line     Replier
	taUserID string
	logger   *slog.Logger
}

// NewInquiry creates the inquiry handler. taUserID is the platform account
// questions are pushed to; empty disables forwarding (the question is still
// logged).
func NewInquiry(states *state.Accessor, chatLog store.ChatLogger, line Replier, taUserID string, logger *slog.Logger) *Inquiry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inquiry{
		states:   states,
		chatLog:  chatLog,
		line:     line,
		taUserID: taUserID,
		logger:   logger.With("component", "inquiry"),
	}
}

// StartInquiry transitions to AWAITING_TA_QUESTION and prompts for the
// question.
func (h *Inquiry) StartInquiry(ctx context.Context, student *store.Student, replyToken string) error {
	if err := h.states.SetStatus(ctx, student.LineUserID, state.StatusAwaitingTAQuestion); err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return err
	}
	return h.line.ReplyText(ctx, replyToken, msgAskQuestion)
}

// SubmitQuestion logs the question, pushes it to the TA, and returns the
// user to IDLE.
func (h *Inquiry) SubmitQuestion(ctx context.Context, student *store.Student, question, replyToken, messageLogID string) error {
	if err := h.chatLog.LogEvent(ctx, &store.EventLogEntry{
		StudentID:    student.StudentID,
		Type:         store.EventQuestion,
		MessageLogID: messageLogID,
		ContextTitle: student.ContextTitle,
	}); err != nil {
		h.logger.Warn("failed to log question event", "student_id", student.StudentID, "error", err)
	}

	if h.taUserID != "" {
		forwarded := fmt.Sprintf("%s（%s）的提問：\n%s", student.Name, student.StudentID, question)
		if err := h.line.PushText(ctx, h.taUserID, forwarded); err != nil {
			replyBusy(ctx, h.line, replyToken, h.logger)
			return fmt.Errorf("forwarding question to ta: %w", err)
		}
	}

	if err := h.states.Reset(ctx, student.LineUserID); err != nil {
		h.logger.Warn("failed to reset user state", "user_id", student.LineUserID, "error", err)
	}
	return h.line.ReplyText(ctx, replyToken, msgQuestionSent)
}
