// ABOUTME: Routes decoded platform events to business handlers by conversation state
// ABOUTME: Implements the transition table and interrupt-overrides-pending policy

package router

import (
	"context"
	"errors"
	"log/slog"

	"github.com/courseline/gateway/internal/postback"
	"github.com/courseline/gateway/internal/state"
	"github.com/courseline/gateway/internal/store"
	"github.com/courseline/gateway/internal/webhook"
)

// DefaultTriggerPhrase starts the ask-TA flow from an idle conversation.
const DefaultTriggerPhrase = "助教安安，我有問題!"

// StudentFinder resolves a platform account to a bound student.
type StudentFinder interface {
	FindByLineID(ctx context.Context, lineUserID string) (*store.Student, error)
}

// RegistrationHandler owns the identity-bootstrap flow for unknown users.
type RegistrationHandler interface {
	HandleFollow(ctx context.Context, userID, replyToken string) error
	RegisterStudent(ctx context.Context, userID, studentIDInput, replyToken string) error
}

// LeaveHandler owns the leave-request flow.
type LeaveHandler interface {
	ApplyForLeave(ctx context.Context, student *store.Student, replyToken string) error
	AskLeaveReason(ctx context.Context, student *store.Student, replyToken, messageLogID string) error
	SubmitLeaveReason(ctx context.Context, student *store.Student, reason, replyToken string) error
}

// InquiryHandler owns the ask-TA flow.
type InquiryHandler interface {
	StartInquiry(ctx context.Context, student *store.Student, replyToken string) error
	SubmitQuestion(ctx context.Context, student *store.Student, question, replyToken, messageLogID string) error
}

// ScoreHandler owns the score-lookup flow.
type ScoreHandler interface {
	ListContents(ctx context.Context, student *store.Student, replyToken string) error
	CheckScore(ctx context.Context, student *store.Student, replyToken, contentsName, messageLogID string) error
}

// AttendanceHandler answers attendance queries.
type AttendanceHandler interface {
	CheckAttendance(ctx context.Context, student *store.Student, replyToken string) error
}

// Handlers bundles the business collaborators the router dispatches to.
type Handlers struct {
	Registration RegistrationHandler
	Leave        LeaveHandler
	Inquiry      InquiryHandler
	Score        ScoreHandler
	Attendance   AttendanceHandler
}

// Router selects the business handler for each event based on the user's
// registration status and conversation state. Handler errors never escape:
// they are logged and the sibling events in the same delivery proceed.
type Router struct {
	students StudentFinder
	states   *state.Accessor
	chatLog  store.ChatLogger
	h        Handlers
	trigger  string
	logger   *slog.Logger
}

// New creates a Router. triggerPhrase falls back to DefaultTriggerPhrase
// when empty.
func New(students StudentFinder, states *state.Accessor, chatLog store.ChatLogger, h Handlers, triggerPhrase string, logger *slog.Logger) *Router {
	if triggerPhrase == "" {
		triggerPhrase = DefaultTriggerPhrase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		students: students,
		states:   states,
		chatLog:  chatLog,
		h:        h,
		trigger:  triggerPhrase,
		logger:   logger.With("component", "router"),
	}
}

// Dispatch implements webhook.Dispatcher.
func (r *Router) Dispatch(ctx context.Context, destination string, ev webhook.Event) {
	var err error
	switch ev.Type {
	case webhook.EventFollow:
		err = r.h.Registration.HandleFollow(ctx, ev.UserID, ev.ReplyToken)
	case webhook.EventMessage:
		err = r.dispatchMessage(ctx, ev)
	case webhook.EventPostback:
		err = r.dispatchPostback(ctx, ev)
	default:
		r.logger.Debug("ignoring event of unknown type", "type", ev.Type)
		return
	}

	if err != nil {
		r.logger.Error("handler failed",
			"type", ev.Type,
			"user_id", ev.UserID,
			"destination", destination,
			"error", err,
		)
	}
}

// dispatchMessage applies the text-message column of the transition table.
func (r *Router) dispatchMessage(ctx context.Context, ev webhook.Event) error {
	student, err := r.students.FindByLineID(ctx, ev.UserID)
	if errors.Is(err, store.ErrNotFound) {
		// Any message from an unknown user is a registration attempt
		return r.h.Registration.RegisterStudent(ctx, ev.UserID, ev.Text, ev.ReplyToken)
	}
	if err != nil {
		return err
	}
	if !student.Registered() {
		return r.h.Registration.RegisterStudent(ctx, ev.UserID, ev.Text, ev.ReplyToken)
	}

	logID := r.logMessage(ctx, student, ev.Text)

	status, err := r.states.Status(ctx, ev.UserID)
	if err != nil {
		return err
	}

	switch status {
	case state.StatusAwaitingLeaveReason:
		return r.h.Leave.SubmitLeaveReason(ctx, student, ev.Text, ev.ReplyToken)
	case state.StatusAwaitingTAQuestion:
		return r.h.Inquiry.SubmitQuestion(ctx, student, ev.Text, ev.ReplyToken, logID)
	case state.StatusAwaitingContentsName:
		return r.h.Score.CheckScore(ctx, student, ev.ReplyToken, ev.Text, logID)
	case state.StatusAwaitingRegradeReason:
		r.logger.Debug("regrade flow not yet served", "user_id", ev.UserID)
		return nil
	}

	if ev.Text == r.trigger {
		return r.h.Inquiry.StartInquiry(ctx, student, ev.ReplyToken)
	}
	return nil
}

// dispatchPostback applies the postback column of the transition table.
func (r *Router) dispatchPostback(ctx context.Context, ev webhook.Event) error {
	student, err := r.students.FindByLineID(ctx, ev.UserID)
	if errors.Is(err, store.ErrNotFound) {
		// Menu taps from users who never registered carry no flow to resume
		r.logger.Warn("postback from unregistered user skipped", "user_id", ev.UserID)
		return nil
	}
	if err != nil {
		return err
	}

	logID := r.logMessage(ctx, student, ev.PostbackData)

	action := postback.Parse(ev.PostbackData)
	if action.Namespace == "summary" {
		r.logger.Info("summary action received", "action", action.Name, "argument", action.Argument)
		return nil
	}

	switch action.Name {
	case "apply_leave":
		return r.h.Leave.ApplyForLeave(ctx, student, ev.ReplyToken)
	case "fetch_absence_info":
		return r.h.Attendance.CheckAttendance(ctx, student, ev.ReplyToken)
	case "check_homework":
		// Starts a new multi-turn flow unconditionally: whatever the user
		// was mid-way through is superseded by the most recent intent
		return r.h.Score.ListContents(ctx, student, ev.ReplyToken)
	case "[Action]confirm_to_leave":
		return r.h.Leave.AskLeaveReason(ctx, student, ev.ReplyToken, logID)
	case "[Action]cancel_to_leave":
		return r.states.Reset(ctx, ev.UserID)
	}

	r.logger.Debug("unhandled postback action", "action", action.Name, "user_id", ev.UserID)
	return nil
}

// logMessage records inbound traffic; audit failures must not block dispatch.
func (r *Router) logMessage(ctx context.Context, student *store.Student, message string) string {
	logID, err := r.chatLog.LogMessage(ctx, student.StudentID, message, student.ContextTitle)
	if err != nil {
		r.logger.Warn("failed to log message", "student_id", student.StudentID, "error", err)
		return ""
	}
	return logID
}
