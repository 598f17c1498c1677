// ABOUTME: Roster lookups against the Moodle database via the remote manager
// ABOUTME: Resolves student accounts and their course enrollments

package moodle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ErrStudentNotFound is returned when no Moodle account matches a student id.
var ErrStudentNotFound = errors.New("student not found on moodle")

// StudentInfo is a Moodle account matched to a student id.
type StudentInfo struct {
	MoodleID  int64
	StudentID string
	FullName  string
}

// Enrollment is one course role held by a Moodle account.
type Enrollment struct {
	CourseFullName string
	RoleID         int
	MoodleID       int64
	FullName       string
}

// ConnManager is the slice of the remote manager the repository needs.
type ConnManager interface {
	WithConn(ctx context.Context, fn func(db *sql.DB) error) error
}

// Repository answers roster questions during registration. Every call
// borrows the shared tunneled connection for one query.
type Repository struct {
	mgr    ConnManager
	logger *slog.Logger
}

// NewRepository creates a Repository over the given connection manager.
func NewRepository(mgr ConnManager, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{mgr: mgr, logger: logger.With("component", "moodle")}
}

// FindStudentInfo resolves a student id (bare username or username@domain)
// to a Moodle account.
func (r *Repository) FindStudentInfo(ctx context.Context, studentID string) (*StudentInfo, error) {
	var info StudentInfo
	err := r.mgr.WithConn(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `
			SELECT usr.id, usr.username, CONCAT(usr.lastname, usr.firstname) AS fullname
			FROM mdl_user AS usr
			WHERE usr.username = $1 OR usr.username LIKE $2
			LIMIT 1`,
			studentID, studentID+"@%")

		err := row.Scan(&info.MoodleID, &info.StudentID, &info.FullName)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStudentNotFound
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("finding student info: %w", err)
	}
	return &info, nil
}

// FindEnrollments lists every course role the student's Moodle account holds.
func (r *Repository) FindEnrollments(ctx context.Context, studentID string) ([]*Enrollment, error) {
	var out []*Enrollment
	err := r.mgr.WithConn(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT cour.fullname, ra.roleid, usr.id, CONCAT(usr.lastname, usr.firstname)
			FROM mdl_user AS usr
			JOIN mdl_role_assignments AS ra ON ra.userid = usr.id
			JOIN mdl_context AS context ON context.id = ra.contextid
			JOIN mdl_course AS cour ON cour.id = context.instanceid
			WHERE usr.username = $1 OR usr.username LIKE $2`,
			studentID, studentID+"@%")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e Enrollment
			if err := rows.Scan(&e.CourseFullName, &e.RoleID, &e.MoodleID, &e.FullName); err != nil {
				return err
			}
			out = append(out, &e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("finding enrollments: %w", err)
	}
	return out, nil
}
