// ABOUTME: Conversation state persistence implementing state.Repository
// ABOUTME: Upsert with last-writer-wins semantics and JSON-encoded context bag

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/courseline/gateway/internal/state"
)

// Get returns the conversation state for a user, or state.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*state.UserState, error) {
	var (
		st     state.UserState
		rawCtx string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT line_user_id, status, context FROM user_states WHERE line_user_id = ?`,
		userID,
	).Scan(&st.UserID, &st.Status, &rawCtx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, state.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user state: %w", err)
	}

	if rawCtx != "" && rawCtx != "{}" {
		if err := json.Unmarshal([]byte(rawCtx), &st.Context); err != nil {
			return nil, fmt.Errorf("decoding state context: %w", err)
		}
	}
	return &st, nil
}

// Save upserts the full state record. Concurrent writers for the same user
// serialize on the row; the last write wins.
func (s *SQLiteStore) Save(ctx context.Context, st *state.UserState) error {
	rawCtx := "{}"
	if len(st.Context) > 0 {
		b, err := json.Marshal(st.Context)
		if err != nil {
			return fmt.Errorf("encoding state context: %w", err)
		}
		rawCtx = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_states (line_user_id, status, context, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (line_user_id) DO UPDATE SET
			status = excluded.status,
			context = excluded.context,
			updated_at = excluded.updated_at`,
		st.UserID, string(st.Status), rawCtx, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving user state: %w", err)
	}
	return nil
}

// Delete removes the state row, returning the user to the implicit IDLE.
func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_states WHERE line_user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting user state: %w", err)
	}
	return nil
}
