// ABOUTME: Gateway orchestrator wiring the store, router, handlers, and HTTP server
// ABOUTME: Owns startup order and the drain-then-close shutdown sequence

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/courseline/gateway/internal/batchapi"
	"github.com/courseline/gateway/internal/config"
	"github.com/courseline/gateway/internal/handlers"
	"github.com/courseline/gateway/internal/lineapi"
	"github.com/courseline/gateway/internal/moodle"
	"github.com/courseline/gateway/internal/remote"
	"github.com/courseline/gateway/internal/router"
	"github.com/courseline/gateway/internal/state"
	"github.com/courseline/gateway/internal/store"
	"github.com/courseline/gateway/internal/webhook"
)

const defaultShutdownGrace = 10 * time.Second

// Gateway orchestrates the courseline-gateway server components: the SQLite
// store, the lazy Moodle connection manager, the webhook worker pool, and
// the HTTP server fronting the webhook and batch API.
type Gateway struct {
	cfg        *config.Config
	store      *store.SQLiteStore
	remoteMgr  *remote.Manager
	pool       *webhook.Pool
	httpServer *http.Server
	logger     *slog.Logger
}

// New wires a Gateway from configuration. Nothing dials out here: the
// Moodle tunnel is established lazily on first use.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	remoteMgr := remote.NewManager(remote.Config{
		Host:     cfg.Moodle.Host,
		Port:     cfg.Moodle.Port,
		Database: cfg.Moodle.Database,
		User:     cfg.Moodle.User,
		Password: cfg.Moodle.Password,
		SSH: remote.SSHConfig{
			Enabled:  cfg.Moodle.SSH.Enabled,
			Host:     cfg.Moodle.SSH.Host,
			Port:     cfg.Moodle.SSH.Port,
			User:     cfg.Moodle.SSH.User,
			Password: cfg.Moodle.SSH.Password,
		},
		IdleTimeout: cfg.Moodle.IdleTimeout,
	}, logger)

	line := lineapi.NewClient(cfg.Line.APIBase, cfg.Line.ChannelToken, logger)
	roster := moodle.NewRepository(remoteMgr, logger)
	states := state.NewAccessor(st)

	h := router.Handlers{
		Registration: handlers.NewRegistration(roster, st, st, states, st, line, line, cfg.Line.RichMenuID, logger),
		Leave:        handlers.NewLeave(st, states, st, line, logger),
		Inquiry:      handlers.NewInquiry(states, st, line, cfg.Line.TAUserID, logger),
		Score:        handlers.NewScore(st, states, line, logger),
		Attendance:   handlers.NewAttendance(st, line, logger),
	}
	rt := router.New(st, states, st, h, cfg.Course.TriggerPhrase, logger)

	pool := webhook.NewPool(cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, logger)
	ingress := webhook.NewHandler(
		func() string { return cfg.Line.ChannelSecret },
		pool, rt, logger,
	)

	batch := batchapi.NewHandler(st, st, line,
		batchapi.NewJWTVerifier([]byte(cfg.Batch.JWTSecret)), logger)

	mux := http.NewServeMux()
	mux.Handle("/webhook", ingress)
	mux.Handle("/api/grades/publish", batch.AuthMiddleware(http.HandlerFunc(batch.ServePublish)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return &Gateway{
		cfg:       cfg,
		store:     st,
		remoteMgr: remoteMgr,
		pool:      pool,
		httpServer: &http.Server{
			Addr:    cfg.Server.HTTPAddr,
			Handler: mux,
		},
		logger: logger.With("component", "gateway"),
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("http server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		g.closeResources()
		return err
	case <-ctx.Done():
	}

	grace := g.cfg.Dispatch.ShutdownGrace
	if grace <= 0 {
		grace = defaultShutdownGrace
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return g.Shutdown(shutdownCtx)
}

// Shutdown stops accepting deliveries, drains in-flight work, then releases
// resources. Order matters: HTTP first so no new tasks arrive, then the
// pool, then the tunnel and store the workers were using.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down")

	var firstErr error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("stopping http server: %w", err)
	}
	if err := g.pool.Close(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("draining worker pool: %w", err)
	}
	g.closeResources()

	if firstErr != nil {
		return firstErr
	}
	g.logger.Info("shutdown complete")
	return nil
}

func (g *Gateway) closeResources() {
	g.remoteMgr.Close()
	if err := g.store.Close(); err != nil {
		g.logger.Warn("closing store", "error", err)
	}
}
