// Package server exposes mesh generation over HTTP: a generate endpoint
// speaking the dispatch wire protocol, a health probe, and Prometheus
// metrics.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Faultbox/planloft/internal/engine"
	"github.com/Faultbox/planloft/internal/engine/cache"
)

// Config holds daemon listen settings.
type Config struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdownTimeout"`

	// RateLimit caps generate requests per second. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" json:"rateLimit"`
	RateBurst int     `yaml:"rate_burst" json:"rateBurst"`
}

// DefaultConfig returns the daemon configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8460",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimit:       50,
		RateBurst:       100,
	}
}

// Server serves the generation API for one engine.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	eng      *engine.Engine
	store    cache.Store
	limiter  *rate.Limiter
	gatherer prometheus.Gatherer

	httpServer *http.Server
	listener   net.Listener
	errCh      chan error

	mu     sync.Mutex
	closed bool
}

// New constructs a server around an already-running engine. store may be
// nil when no shared tier is configured; gatherer may be nil to serve the
// default metrics registry.
func New(eng *engine.Engine, store cache.Store, gatherer prometheus.Gatherer, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "server")),
		eng:      eng,
		store:    store,
		gatherer: gatherer,
		errCh:    make(chan error, 1),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the assembled HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("server is closed")
	}
	if s.listener != nil {
		return fmt.Errorf("server already started")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}

	s.listener = listener
	s.logger.Info("listening", zap.String("addr", listener.Addr().String()))

	go s.serve(listener)
	return nil
}

func (s *Server) serve(listener net.Listener) {
	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		s.logger.Error("server failed", zap.Error(err))
		select {
		case s.errCh <- err:
		default:
		}
	}
}

// Addr returns the bound listen address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Shutdown drains in-flight requests and stops the listener. Idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("shutting down")

	shutdownCtx := ctx
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown failed", zap.Error(err))
		return err
	}

	s.listener = nil
	s.logger.Info("server stopped")
	return nil
}

// WaitForShutdown blocks until SIGINT, SIGTERM, or a serve failure, then
// shuts the server down.
func (s *Server) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-s.errCh:
		if err != nil {
			s.logger.Error("server exited unexpectedly", zap.Error(err))
		}
	}

	if err := s.Shutdown(context.Background()); err != nil {
		s.logger.Error("shutdown error", zap.Error(err))
	}
}
