// ABOUTME: Outbound LINE Messaging API client with retrying HTTP transport
// ABOUTME: Sends reply/push text messages and links rich menus to users

package lineapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"
)

// DefaultBaseURL is the public LINE Messaging API endpoint.
const DefaultBaseURL = "https://api.line.me"

const (
	requestTimeout  = 10 * time.Second
	retryCount      = 3
	retryInterval   = 300 * time.Millisecond
	maxJitter       = 50 * time.Millisecond
	maxErrorBodyLen = 512
)

// Client calls the LINE Messaging API. Replies are fire-and-forget from the
// platform's perspective, so transient failures are retried with constant
// backoff before giving up.
type Client struct {
	baseURL string
	token   string
	http    *httpclient.Client
	logger  *slog.Logger
}

// NewClient creates a Client authenticated with the given channel token.
// baseURL falls back to DefaultBaseURL when empty.
func NewClient(baseURL, channelToken string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	backoff := heimdall.NewConstantBackoff(retryInterval, maxJitter)
	retrier := heimdall.NewRetrier(backoff)

	return &Client{
		baseURL: baseURL,
		token:   channelToken,
		http: httpclient.NewClient(
			httpclient.WithHTTPTimeout(requestTimeout),
			httpclient.WithRetrier(retrier),
			httpclient.WithRetryCount(retryCount),
		),
		logger: logger.With("component", "lineapi"),
	}
}

// textMessage is the wire form of a text message object.
type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ReplyText answers an inbound event using its reply token.
func (c *Client) ReplyText(ctx context.Context, replyToken string, texts ...string) error {
	msgs := make([]textMessage, len(texts))
	for i, t := range texts {
		msgs[i] = textMessage{Type: "text", Text: t}
	}

	body := map[string]any{
		"replyToken": replyToken,
		"messages":   msgs,
	}
	return c.post(ctx, "/v2/bot/message/reply", body)
}

// ReplyConfirm answers with a confirm template carrying two postback
// buttons. The platform sends the chosen button's data back as a postback
// event.
func (c *Client) ReplyConfirm(ctx context.Context, replyToken, text, confirmLabel, confirmData, cancelLabel, cancelData string) error {
	body := map[string]any{
		"replyToken": replyToken,
		"messages": []map[string]any{{
			"type":    "template",
			"altText": text,
			"template": map[string]any{
				"type": "confirm",
				"text": text,
				"actions": []map[string]any{
					{"type": "postback", "label": confirmLabel, "data": confirmData},
					{"type": "postback", "label": cancelLabel, "data": cancelData},
				},
			},
		}},
	}
	return c.post(ctx, "/v2/bot/message/reply", body)
}

// PushText sends an unsolicited message to a user.
func (c *Client) PushText(ctx context.Context, to, text string) error {
	body := map[string]any{
		"to":       to,
		"messages": []textMessage{{Type: "text", Text: text}},
	}
	return c.post(ctx, "/v2/bot/message/push", body)
}

// LinkRichMenu attaches a rich menu to a user.
func (c *Client) LinkRichMenu(ctx context.Context, userID, richMenuID string) error {
	return c.post(ctx, fmt.Sprintf("/v2/bot/user/%s/richmenu/%s", userID, richMenuID), nil)
}

// post issues an authenticated JSON POST and maps non-2xx responses to errors.
func (c *Client) post(ctx context.Context, path string, body any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling line api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return fmt.Errorf("line api %s returned %d: %s", path, resp.StatusCode, detail)
	}

	c.logger.Debug("line api call ok", "path", path, "status", resp.StatusCode)
	return nil
}
