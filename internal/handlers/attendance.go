// ABOUTME: Attendance queries: summarize a student's recorded leave requests
// ABOUTME: Read-only flow, no state transitions

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/courseline/gateway/internal/store"
)

// Attendance answers leave-history queries.
type Attendance struct {
	leaves store.LeaveRepository
	line   Replier
	logger *slog.Logger
}

// NewAttendance creates the attendance handler.
func NewAttendance(leaves store.LeaveRepository, line Replier, logger *slog.Logger) *Attendance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Attendance{
		leaves: leaves,
		line:   line,
		logger: logger.With("component", "attendance"),
	}
}

// CheckAttendance replies with the student's leave history, newest first.
func (h *Attendance) CheckAttendance(ctx context.Context, student *store.Student, replyToken string) error {
	requests, err := h.leaves.ListLeaveRequests(ctx, student.StudentID)
	if err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return fmt.Errorf("listing leave requests: %w", err)
	}

	if len(requests) == 0 {
		return h.line.ReplyText(ctx, replyToken, msgNoLeaves)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "你目前共有 %d 筆請假紀錄：\n", len(requests))
	for _, r := range requests {
		fmt.Fprintf(&b, "%s：%s\n", r.LeaveDate, r.Reason)
	}
	return h.line.ReplyText(ctx, replyToken, strings.TrimRight(b.String(), "\n"))
}
