// ABOUTME: Identity-bootstrap flow: follow greeting and student id binding
// ABOUTME: Verifies ids against Moodle and binds exactly one account per student

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/courseline/gateway/internal/moodle"
	"github.com/courseline/gateway/internal/state"
	"github.com/courseline/gateway/internal/store"
)

// Registration binds platform accounts to roster identities. The store's
// uniqueness constraint, not this handler, decides the winner when two
// accounts race for one student id.
type Registration struct {
	roster   RosterVerifier
	students store.StudentRepository
	courses  store.CourseRepository
	states   *state.Accessor
	chatLog  store.ChatLogger
	line     Replier
	menus    MenuLinker
	menuID   string
	logger   *slog.Logger
}

// NewRegistration creates the registration handler. menuID is the rich menu
// linked to users once they are bound; empty disables menu linking.
func NewRegistration(roster RosterVerifier, students store.StudentRepository, courses store.CourseRepository, states *state.Accessor, chatLog store.ChatLogger, line Replier, menus MenuLinker, menuID string, logger *slog.Logger) *Registration {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registration{
		roster:   roster,
		students: students,
		courses:  courses,
		states:   states,
		chatLog:  chatLog,
		line:     line,
		menus:    menus,
		menuID:   menuID,
		logger:   logger.With("component", "registration"),
	}
}

// HandleFollow greets a new or returning follower. A user who is already
// bound gets the menu re-linked; everyone else is asked for a student id.
func (h *Registration) HandleFollow(ctx context.Context, userID, replyToken string) error {
	student, err := h.students.FindByLineID(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return fmt.Errorf("looking up follower: %w", err)
	}

	if student != nil && student.Registered() {
		h.linkMenu(ctx, userID)
		return h.line.ReplyText(ctx, replyToken, msgWelcomeBack)
	}
	return h.line.ReplyText(ctx, replyToken, msgAskStudentID)
}

// RegisterStudent verifies the submitted student id against the roster and
// binds it to the platform account.
func (h *Registration) RegisterStudent(ctx context.Context, userID, studentIDInput, replyToken string) error {
	studentID := strings.TrimSpace(studentIDInput)
	if studentID == "" {
		return h.line.ReplyText(ctx, replyToken, msgAskStudentID)
	}

	info, err := h.roster.FindStudentInfo(ctx, studentID)
	if errors.Is(err, moodle.ErrStudentNotFound) {
		return h.line.ReplyText(ctx, replyToken, msgStudentUnknown)
	}
	if err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return fmt.Errorf("verifying student id: %w", err)
	}

	enrollment, err := h.matchInProgressCourse(ctx, studentID)
	if err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return err
	}
	if enrollment == nil {
		return h.line.ReplyText(ctx, replyToken, msgNotEnrolled)
	}

	err = h.students.Create(ctx, &store.Student{
		LineUserID:   userID,
		StudentID:    info.StudentID,
		MoodleID:     info.MoodleID,
		Name:         info.FullName,
		ContextTitle: enrollment.CourseFullName,
		Role:         enrollment.RoleID,
		IsActive:     true,
	})
	if errors.Is(err, store.ErrDuplicateStudent) {
		return h.line.ReplyText(ctx, replyToken, msgAlreadyBound)
	}
	if err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return fmt.Errorf("binding student: %w", err)
	}

	if err := h.states.Reset(ctx, userID); err != nil {
		h.logger.Warn("failed to init user state", "user_id", userID, "error", err)
	}
	if err := h.chatLog.LogEvent(ctx, &store.EventLogEntry{
		StudentID:    info.StudentID,
		Type:         store.EventRegister,
		ContextTitle: enrollment.CourseFullName,
	}); err != nil {
		h.logger.Warn("failed to log registration event", "student_id", info.StudentID, "error", err)
	}

	h.linkMenu(ctx, userID)
	h.logger.Info("student registered",
		"student_id", info.StudentID,
		"course", enrollment.CourseFullName,
	)
	return h.line.ReplyText(ctx, replyToken,
		fmt.Sprintf("%s 你好，綁定完成！有問題都可以從選單找到我", info.FullName))
}

// matchInProgressCourse returns the student's enrollment in a course the bot
// currently serves, or nil when there is none.
func (h *Registration) matchInProgressCourse(ctx context.Context, studentID string) (*moodle.Enrollment, error) {
	enrollments, err := h.roster.FindEnrollments(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments: %w", err)
	}

	active, err := h.courses.InProgress(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing in-progress courses: %w", err)
	}

	serving := make(map[string]bool, len(active))
	for _, c := range active {
		serving[c.ContextTitle] = true
	}
	for _, e := range enrollments {
		if serving[e.CourseFullName] {
			return e, nil
		}
	}
	return nil, nil
}

func (h *Registration) linkMenu(ctx context.Context, userID string) {
	if h.menuID == "" {
		return
	}
	if err := h.menus.LinkRichMenu(ctx, userID, h.menuID); err != nil {
		h.logger.Warn("failed to link rich menu", "user_id", userID, "error", err)
	}
}
