// ABOUTME: Course offering and score lookups on the SQLite store
// ABOUTME: Implements CourseRepository and ScoreRepository

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InProgress returns courses currently being served by the bot.
func (s *SQLiteStore) InProgress(ctx context.Context) ([]*Course, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT context_title, in_progress FROM courses WHERE in_progress = 1`)
	if err != nil {
		return nil, fmt.Errorf("querying courses: %w", err)
	}
	defer rows.Close()

	var out []*Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ContextTitle, &c.InProgress); err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// UpsertCourse creates or updates a course offering.
func (s *SQLiteStore) UpsertCourse(ctx context.Context, c *Course) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (context_title, in_progress) VALUES (?, ?)
		ON CONFLICT (context_title) DO UPDATE SET in_progress = excluded.in_progress`,
		c.ContextTitle, c.InProgress,
	)
	if err != nil {
		return fmt.Errorf("upserting course: %w", err)
	}
	return nil
}

// GetScore returns the published score for one graded item.
func (s *SQLiteStore) GetScore(ctx context.Context, studentID, contentsName string) (*Score, error) {
	var sc Score
	err := s.db.QueryRowContext(ctx, `
		SELECT student_id, context_title, contents_name, points, memo, updated_at
		FROM scores WHERE student_id = ? AND contents_name = ?`,
		studentID, contentsName,
	).Scan(&sc.StudentID, &sc.ContextTitle, &sc.ContentsName, &sc.Points, &sc.Memo, &sc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning score: %w", err)
	}
	return &sc, nil
}

// ListContents returns the distinct graded item names published for a course.
func (s *SQLiteStore) ListContents(ctx context.Context, contextTitle string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT contents_name FROM scores WHERE context_title = ?
		ORDER BY contents_name`, contextTitle)
	if err != nil {
		return nil, fmt.Errorf("querying contents: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning contents name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// UpsertScore publishes or updates a score row.
func (s *SQLiteStore) UpsertScore(ctx context.Context, sc *Score) error {
	if sc.UpdatedAt.IsZero() {
		sc.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (student_id, context_title, contents_name, points, memo, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, context_title, contents_name) DO UPDATE SET
			points = excluded.points,
			memo = excluded.memo,
			updated_at = excluded.updated_at`,
		sc.StudentID, sc.ContextTitle, sc.ContentsName, sc.Points, sc.Memo, sc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting score: %w", err)
	}
	return nil
}
