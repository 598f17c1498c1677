// ABOUTME: Leave request persistence with one-request-per-date enforcement
// ABOUTME: Implements the LeaveRepository interface over the SQLite store

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateLeaveRequest inserts a leave request. A second request for the same
// student and date trips the UNIQUE constraint and maps to ErrDuplicateLeave.
func (s *SQLiteStore) CreateLeaveRequest(ctx context.Context, req *LeaveRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests (id, student_id, context_title, leave_date, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID, req.StudentID, req.ContextTitle, req.LeaveDate, req.Reason, req.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err, "leave_date") {
			return ErrDuplicateLeave
		}
		return fmt.Errorf("inserting leave request: %w", err)
	}
	return nil
}

// ListLeaveRequests returns a student's leave requests, newest first.
func (s *SQLiteStore) ListLeaveRequests(ctx context.Context, studentID string) ([]*LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, context_title, leave_date, reason, created_at
		FROM leave_requests WHERE student_id = ?
		ORDER BY leave_date DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("querying leave requests: %w", err)
	}
	defer rows.Close()

	var out []*LeaveRequest
	for rows.Next() {
		var r LeaveRequest
		if err := rows.Scan(&r.ID, &r.StudentID, &r.ContextTitle, &r.LeaveDate, &r.Reason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning leave request: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
