// ABOUTME: Data types, repository interfaces, and sentinel errors for persistence
// ABOUTME: Defines Student, Course, Score, log entries, and leave request records

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateStudent is returned when a student id is already bound to
// another platform account. The UNIQUE constraint on student_id resolves
// concurrent registrations: exactly one insert wins.
var ErrDuplicateStudent = errors.New("student id already bound")

// ErrDuplicateLeave is returned when a leave request already exists for the
// same student and date.
var ErrDuplicateLeave = errors.New("leave request already exists for this date")

// Student binds a platform user to a roster identity.
type Student struct {
	LineUserID   string
	StudentID    string
	MoodleID     int64
	Name         string
	ContextTitle string
	Role         int
	IsActive     bool
	CreatedAt    time.Time
}

// Registered reports whether the student has completed identity binding.
func (s *Student) Registered() bool {
	return s.StudentID != "" && s.IsActive
}

// Course is an offering the bot serves.
type Course struct {
	ContextTitle string
	InProgress   bool
}

// Score is one graded item for a student.
type Score struct {
	StudentID    string
	ContextTitle string
	ContentsName string
	Points       float64
	Memo         string
	UpdatedAt    time.Time
}

// EventType tags entries in the event log.
type EventType string

const (
	EventRegister EventType = "REGISTER"
	EventLeave    EventType = "LEAVE"
	EventQuestion EventType = "QUESTION"
	EventPublish  EventType = "PUBLISH"
)

// MessageLogEntry records one inbound message or postback for audit.
type MessageLogEntry struct {
	ID           string
	StudentID    string
	Message      string
	ContextTitle string
	CreatedAt    time.Time
}

// EventLogEntry records a business event tied to a student.
type EventLogEntry struct {
	ID           string
	StudentID    string
	Type         EventType
	MessageLogID string
	ContextTitle string
	CreatedAt    time.Time
}

// LeaveRequest is a student's request for leave on a given date.
type LeaveRequest struct {
	ID           string
	StudentID    string
	ContextTitle string
	LeaveDate    string // YYYY-MM-DD
	Reason       string
	CreatedAt    time.Time
}

// StudentRepository is the identity-binding collaborator. Create must be
// insert-or-conflict, never read-then-write: the store's uniqueness
// constraint, not application logic, decides the winner of a race.
type StudentRepository interface {
	Create(ctx context.Context, s *Student) error
	FindByLineID(ctx context.Context, lineUserID string) (*Student, error)
	FindByStudentID(ctx context.Context, studentID string) (*Student, error)
}

// CourseRepository lists course offerings.
type CourseRepository interface {
	InProgress(ctx context.Context) ([]*Course, error)
}

// ScoreRepository looks up published scores.
type ScoreRepository interface {
	GetScore(ctx context.Context, studentID, contentsName string) (*Score, error)
	ListContents(ctx context.Context, contextTitle string) ([]string, error)
}

// ChatLogger records inbound traffic and business events.
type ChatLogger interface {
	LogMessage(ctx context.Context, studentID, message, contextTitle string) (string, error)
	LogEvent(ctx context.Context, entry *EventLogEntry) error
}

// LeaveRepository persists leave requests.
type LeaveRepository interface {
	CreateLeaveRequest(ctx context.Context, req *LeaveRequest) error
	ListLeaveRequests(ctx context.Context, studentID string) ([]*LeaveRequest, error)
}
