// ABOUTME: Shared collaborator interfaces and reply texts for business handlers
// ABOUTME: Defines the Replier/MenuLinker/RosterVerifier slices handlers consume

package handlers

import (
	"context"
	"log/slog"

	"github.com/courseline/gateway/internal/moodle"
)

// Replier is the slice of the messaging client handlers use to answer users.
type Replier interface {
	ReplyText(ctx context.Context, replyToken string, texts ...string) error
	PushText(ctx context.Context, to, text string) error
}

// ConfirmReplier additionally sends confirm templates with postback buttons.
type ConfirmReplier interface {
	Replier
	ReplyConfirm(ctx context.Context, replyToken, text, confirmLabel, confirmData, cancelLabel, cancelData string) error
}

// MenuLinker attaches rich menus to users.
type MenuLinker interface {
	LinkRichMenu(ctx context.Context, userID, richMenuID string) error
}

// RosterVerifier answers identity questions against the course roster.
type RosterVerifier interface {
	FindStudentInfo(ctx context.Context, studentID string) (*moodle.StudentInfo, error)
	FindEnrollments(ctx context.Context, studentID string) ([]*moodle.Enrollment, error)
}

// User-facing reply texts.
const (
	msgAskStudentID   = "歡迎使用課程小幫手！請輸入你的學號完成綁定"
	msgStudentUnknown = "在 Moodle 上找不到這個學號，請確認後再輸入一次"
	msgNotEnrolled    = "這個學號沒有修習目前開設中的課程"
	msgAlreadyBound   = "這個學號已經綁定過其他帳號了，如有問題請聯絡助教"
	msgWelcomeBack    = "歡迎回來！需要什麼服務可以從選單選取"
	msgLeaveConfirm   = "確定要申請今天的請假嗎？"
	msgAskLeaveReason = "請輸入你的請假原因"
	msgLeaveAccepted  = "已收到你的請假申請"
	msgLeaveDuplicate = "你今天已經申請過請假了"
	msgAskQuestion    = "請輸入你想問助教的問題"
	msgQuestionSent   = "問題已轉達給助教，請耐心等候回覆"
	msgNoScores       = "目前還沒有公布任何成績"
	msgNoLeaves       = "你目前沒有請假紀錄"
	msgTryAgainLater  = "系統忙碌中，請稍後再試"
)

// replyBusy sends the generic failure reply. It runs on the error path, so
// its own failure is only logged.
func replyBusy(ctx context.Context, line Replier, replyToken string, logger *slog.Logger) {
	if replyToken == "" {
		return
	}
	if err := line.ReplyText(ctx, replyToken, msgTryAgainLater); err != nil {
		logger.Warn("failed to send busy reply", "error", err)
	}
}
