// ABOUTME: Message and event log persistence for audit and follow-up flows
// ABOUTME: Implements the ChatLogger interface over the SQLite store

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LogMessage records one inbound message or postback and returns the row id,
// which handlers attach to subsequent event log entries.
func (s *SQLiteStore) LogMessage(ctx context.Context, studentID, message, contextTitle string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO message_log (id, student_id, message, context_title, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, studentID, message, contextTitle, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting message log: %w", err)
	}
	return id, nil
}

// LogEvent records a business event. A zero ID and CreatedAt are filled in.
func (s *SQLiteStore) LogEvent(ctx context.Context, entry *EventLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_log (id, student_id, event_type, message_log_id, context_title, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.StudentID, string(entry.Type), entry.MessageLogID, entry.ContextTitle, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting event log: %w", err)
	}
	return nil
}
