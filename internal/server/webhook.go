// Package server hosts the webhook endpoint Google Calendar delivers push
// notifications to, plus the health and metrics endpoints.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/humorloos/feierabend/internal/instrumentation"
	"github.com/humorloos/feierabend/internal/logging"
)

// ChannelIDHeader carries the watch channel id of a push notification.
const ChannelIDHeader = "X-Goog-Channel-Id"

const (
	// DefaultAddr is the default bind address of the webhook server.
	DefaultAddr = ":8080"

	// DefaultReadHeaderTimeout bounds header parsing; notification bodies
	// are empty, so nothing larger is needed.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds a single reconciliation pass triggered by
	// a notification.
	DefaultWriteTimeout = 120 * time.Second

	// DefaultIdleTimeout is the keep-alive idle timeout.
	DefaultIdleTimeout = 60 * time.Second
)

// Reconciler runs one reconciliation pass for a watch channel.
type Reconciler interface {
	Run(ctx context.Context, channelID string) error
}

// Config holds the webhook server configuration.
type Config struct {
	// Addr is the bind address (default ":8080").
	Addr string

	// Reconciler handles incoming notifications.
	Reconciler Reconciler

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics *instrumentation.Metrics
}

// Server receives calendar push notifications and turns each one into a
// reconciliation pass.
type Server struct {
	httpServer *http.Server
	addr       string
	reconciler Reconciler
	log        *slog.Logger
	metrics    *instrumentation.Metrics
	health     *HealthChecker
	shutdown   atomic.Bool
}

// New creates a webhook server.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		addr:       cfg.Addr,
		reconciler: cfg.Reconciler,
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
	}
	s.health = NewHealthChecker(s.shutdown.Load)
	return s
}

// Handler returns the HTTP handler of the server, exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.HandlerFunc(s.handleNotification))
	s.health.RegisterHealthEndpoints(mux)
	return mux
}

// Health returns the health checker so callers can flip readiness.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Start starts the webhook server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	s.log.Info("starting webhook server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)
	if s.httpServer != nil {
		s.log.Info("shutting down webhook server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleNotification dispatches one push notification. Notifications without
// a channel header are acknowledged without action; reconciliation failures
// return a 500 so Google redelivers the notification, which is safe because
// passes are idempotent.
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	status := http.StatusOK
	defer func() {
		s.metrics.RecordHTTPRequest(r.Method, "/", status, time.Since(started))
	}()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("This page only exists to handle calendar updates\n"))
		return
	}

	channelID := r.Header.Get(ChannelIDHeader)
	if channelID == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.reconciler.Run(r.Context(), channelID); err != nil {
		s.log.Error("reconciliation pass failed", logging.ChannelID(channelID), logging.Err(err))
		status = http.StatusInternalServerError
		http.Error(w, "reconciliation failed", status)
		return
	}
	w.WriteHeader(http.StatusOK)
}
