// ABOUTME: SQLite implementation of the application store using modernc.org/sqlite
// ABOUTME: Owns schema creation and shared helpers for constraint error mapping

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the repository interfaces against a single SQLite
// database. It also implements state.Repository for conversation state.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path. Parent
// directories are created and the schema is applied automatically.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// busy_timeout is per-connection, so it rides on the DSN rather than a
	// one-off PRAGMA exec against a single pooled connection
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL improves behavior under the concurrent worker-pool writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS students (
			line_user_id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			moodle_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			context_title TEXT NOT NULL,
			role INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_students_student_id
			ON students(student_id);

		CREATE TABLE IF NOT EXISTS user_states (
			line_user_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			context TEXT NOT NULL DEFAULT '{}',
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS courses (
			context_title TEXT PRIMARY KEY,
			in_progress INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS scores (
			student_id TEXT NOT NULL,
			context_title TEXT NOT NULL,
			contents_name TEXT NOT NULL,
			points REAL NOT NULL,
			memo TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (student_id, context_title, contents_name)
		);

		CREATE TABLE IF NOT EXISTS message_log (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			message TEXT NOT NULL,
			context_title TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_message_log_student
			ON message_log(student_id, created_at);

		CREATE TABLE IF NOT EXISTS event_log (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			message_log_id TEXT,
			context_title TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS leave_requests (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			context_title TEXT NOT NULL,
			leave_date TEXT NOT NULL,
			reason TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (student_id, leave_date)
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
// SQLite reports these as "UNIQUE constraint failed: <table>.<column>".
func isUniqueConstraintError(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
