// ABOUTME: Student identity-binding operations on the SQLite store
// ABOUTME: Insert-or-conflict create plus lookups by platform id and student id

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Create inserts a new student binding. The insert itself enforces
// uniqueness of both the platform account and the student id; a losing
// concurrent registration gets ErrDuplicateStudent, never a silent
// overwrite.
func (s *SQLiteStore) Create(ctx context.Context, st *Student) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (line_user_id, student_id, moodle_id, name, context_title, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.LineUserID, st.StudentID, st.MoodleID, st.Name, st.ContextTitle, st.Role, st.IsActive, st.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err, "student_id") {
			return ErrDuplicateStudent
		}
		return fmt.Errorf("inserting student: %w", err)
	}

	s.logger.Info("student registered",
		"line_user_id", st.LineUserID,
		"student_id", st.StudentID,
		"context_title", st.ContextTitle,
	)
	return nil
}

// FindByLineID returns the student bound to the given platform account.
func (s *SQLiteStore) FindByLineID(ctx context.Context, lineUserID string) (*Student, error) {
	return s.scanStudent(s.db.QueryRowContext(ctx, `
		SELECT line_user_id, student_id, moodle_id, name, context_title, role, is_active, created_at
		FROM students WHERE line_user_id = ?`, lineUserID))
}

// FindByStudentID returns the student with the given roster id.
func (s *SQLiteStore) FindByStudentID(ctx context.Context, studentID string) (*Student, error) {
	return s.scanStudent(s.db.QueryRowContext(ctx, `
		SELECT line_user_id, student_id, moodle_id, name, context_title, role, is_active, created_at
		FROM students WHERE student_id = ?`, studentID))
}

func (s *SQLiteStore) scanStudent(row *sql.Row) (*Student, error) {
	var st Student
	err := row.Scan(&st.LineUserID, &st.StudentID, &st.MoodleID, &st.Name,
		&st.ContextTitle, &st.Role, &st.IsActive, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning student: %w", err)
	}
	return &st, nil
}
