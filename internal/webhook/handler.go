// ABOUTME: HTTP ingress for webhook deliveries: verify, acknowledge, hand off
// ABOUTME: Signature failures get 400; everything valid is 200 before processing

package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/courseline/gateway/internal/signature"
)

// Dispatcher routes one decoded event to its business handler. Implemented
// by the router; errors stay behind this boundary (logged, never returned).
type Dispatcher interface {
	Dispatch(ctx context.Context, destination string, ev Event)
}

// Submitter is the slice of the worker pool the handler needs.
type Submitter interface {
	Submit(task func()) error
}

// Handler accepts POST /webhook deliveries. The only work done on the
// request thread is signature verification; decoding and routing happen on
// the pool, after the platform has already received its 200.
type Handler struct {
	secret     func() string
	pool       Submitter
	dispatcher Dispatcher
	seen       *SeenCache
	logger     *slog.Logger
}

// NewHandler creates the webhook ingress. secret is consulted per delivery
// so rotated credentials take effect without a restart.
func NewHandler(secret func() string, pool Submitter, dispatcher Dispatcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		secret:     secret,
		pool:       pool,
		dispatcher: dispatcher,
		seen:       NewSeenCache(0, 0),
		logger:     logger.With("component", "webhook"),
	}
}

// ServeHTTP implements the delivery contract: 400 for a bad signature,
// otherwise 200 with all processing deferred to the pool. Submission
// failures are logged and swallowed; the platform retries delivery.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("failed to read delivery body", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if !signature.Verify(h.secret(), body, r.Header.Get("X-Line-Signature")) {
		h.logger.Warn("invalid webhook signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.pool.Submit(func() { h.process(body) }); err != nil {
		h.logger.Error("dropping delivery, relying on platform redelivery", "error", err)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// process runs on a pool worker: re-parse the raw body and forward each
// event, in delivery order, to the router.
func (h *Handler) process(body []byte) {
	env, err := ParseEnvelope(body)
	if err != nil {
		h.logger.Error("failed to decode envelope", "error", err)
		return
	}

	ctx := context.Background()
	for _, ev := range env.Events {
		if h.seen.CheckAndMark(ev.ID) {
			h.logger.Debug("skipping redelivered event", "event_id", ev.ID)
			continue
		}
		h.dispatcher.Dispatch(ctx, env.Destination, ev)
	}
}
