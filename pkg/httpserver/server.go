// Package httpserver wraps net/http and chi into a server that is started and
// stopped by lifecycle commands.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bft-labs/stagehand/pkg/log"
)

// Server errors.
var (
	ErrAlreadyRunning = errors.New("httpserver: can only be started once")
	ErrNotRunning     = errors.New("httpserver: not running")
)

// Config holds the server settings.
type Config struct {
	// Addr is the TCP address to listen on, e.g. ":8080" or "127.0.0.1:0".
	Addr string

	// ReadHeaderTimeout bounds the time to read request headers.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown in the stopping command.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config listening on :8080.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Server is an HTTP server whose routes and middlewares are registered before
// Start. It can be started once and stopped once.
type Server struct {
	cfg    Config
	router chi.Router
	logger log.Logger

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	running  bool
	served   chan struct{}
}

// New creates a stopped server.
func New(cfg Config, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}
	return &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger.With(log.Component("httpserver")),
	}
}

// Use appends middlewares to the router. Middlewares must be registered
// before any route.
func (s *Server) Use(middlewares ...func(http.Handler) http.Handler) {
	s.router.Use(middlewares...)
}

// Handle serves pattern with h.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// HandleFunc serves pattern with fn.
func (s *Server) HandleFunc(pattern string, fn http.HandlerFunc) {
	s.router.HandleFunc(pattern, fn)
}

// Method serves pattern for a single HTTP method.
func (s *Server) Method(method, pattern string, h http.Handler) {
	s.router.Method(method, pattern, h)
}

// Mount attaches a sub-router under pattern.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

// Router returns the underlying chi router.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start binds the listener and serves in a background goroutine.
// Returns once the listener is bound, so bind errors fail the caller.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
	s.listener = ln
	s.running = true
	s.served = make(chan struct{})

	go s.serve(s.srv, ln, s.served)

	s.logger.Info("http server listening", log.String("addr", ln.Addr().String()))
	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener, served chan struct{}) {
	defer close(served)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("http server failed", log.Err(err))
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}
}

// Stop gracefully shuts the server down, waiting for in-flight requests until
// ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	srv, served := s.srv, s.served
	s.mu.Unlock()

	err := srv.Shutdown(ctx)
	if err != nil {
		_ = srv.Close()
	}
	<-served

	s.logger.Info("http server stopped")
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}
