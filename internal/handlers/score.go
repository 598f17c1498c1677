// ABOUTME: Score-lookup flow: list published items, answer score queries
// ABOUTME: Listing starts the flow unconditionally, superseding any pending one

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/courseline/gateway/internal/state"
	"github.com/courseline/gateway/internal/store"
)

// Score answers published-score queries.
type Score struct {
	scores store.ScoreRepository
	states *state.Accessor
	line   Replier
	logger *slog.Logger
}

// NewScore creates the score handler.
func NewScore(scores store.ScoreRepository, states *state.Accessor, line Replier, logger *slog.Logger) *Score {
	if logger == nil {
		logger = slog.Default()
	}
	return &Score{
		scores: scores,
		states: states,
		line:   line,
		logger: logger.With("component", "score"),
	}
}

// ListContents shows the published graded items and transitions to
// AWAITING_CONTENTS_NAME, regardless of what the user was doing before.
// With nothing published the user goes back to IDLE instead.
func (h *Score) ListContents(ctx context.Context, student *store.Student, replyToken string) error {
	contents, err := h.scores.ListContents(ctx, student.ContextTitle)
	if err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return fmt.Errorf("listing contents: %w", err)
	}

	if len(contents) == 0 {
		if err := h.states.Reset(ctx, student.LineUserID); err != nil {
			h.logger.Warn("failed to reset user state", "user_id", student.LineUserID, "error", err)
		}
		return h.line.ReplyText(ctx, replyToken, msgNoScores)
	}

	if err := h.states.SetStatus(ctx, student.LineUserID, state.StatusAwaitingContentsName); err != nil {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return err
	}

	var b strings.Builder
	b.WriteString("目前已公布的成績項目：\n")
	for _, name := range contents {
		b.WriteString("・")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("請輸入想查詢的項目名稱")
	return h.line.ReplyText(ctx, replyToken, b.String())
}

// CheckScore answers one score query and returns the user to IDLE whether or
// not the item exists.
func (h *Score) CheckScore(ctx context.Context, student *store.Student, replyToken, contentsName, messageLogID string) error {
	name := strings.TrimSpace(contentsName)

	sc, err := h.scores.GetScore(ctx, student.StudentID, name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		replyBusy(ctx, h.line, replyToken, h.logger)
		return fmt.Errorf("looking up score: %w", err)
	}

	if rerr := h.states.Reset(ctx, student.LineUserID); rerr != nil {
		h.logger.Warn("failed to reset user state", "user_id", student.LineUserID, "error", rerr)
	}

	if errors.Is(err, store.ErrNotFound) {
		return h.line.ReplyText(ctx, replyToken,
			fmt.Sprintf("找不到「%s」的成績，請確認名稱後再查一次", name))
	}

	reply := fmt.Sprintf("「%s」成績：%g 分", sc.ContentsName, sc.Points)
	if sc.Memo != "" {
		reply += "\n備註：" + sc.Memo
	}
	return h.line.ReplyText(ctx, replyToken, reply)
}
