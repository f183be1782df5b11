// Package console serves the server-rendered workspace console: application
// and snapshot pages, environment provision errors and scenario re-runs.
package console

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moolen/hac-console/internal/config"
	"github.com/moolen/hac-console/internal/logging"
	"github.com/moolen/hac-console/internal/snapshot"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/client-go/dynamic"
)

// Server is the console HTTP server. It implements lifecycle.Component.
type Server struct {
	addr      string
	namespace atomic.Pointer[string]

	router   *http.ServeMux
	handler  http.Handler
	pages    *pages
	lister   *snapshot.Lister
	rerunner *snapshot.Rerunner
	statuses *snapshot.StatusCache
	registry *prometheus.Registry
	metrics  *Metrics
	tracer   trace.Tracer
	logger   *logging.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Option customises a Server.
type Option func(*Server)

// WithRegistry registers metrics on reg and serves it on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = t
	}
}

// NewServer creates a console server reading resources through client.
func NewServer(cfg config.Config, client dynamic.Interface, opts ...Option) (*Server, error) {
	if client == nil {
		return nil, errors.New("dynamic client is required")
	}

	s := &Server{
		addr:   cfg.ListenAddr,
		router: http.NewServeMux(),
		lister: snapshot.NewLister(client),
		tracer: otel.GetTracerProvider().Tracer("hac-console/console"),
		logger: logging.GetLogger("console"),
	}
	s.namespace.Store(&cfg.Namespace)
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	s.pages = p

	statuses, err := snapshot.NewStatusCache(0)
	if err != nil {
		return nil, fmt.Errorf("failed to create status cache: %w", err)
	}
	s.statuses = statuses
	s.metrics = NewMetrics(s.registry)
	s.rerunner = snapshot.NewRerunner(client, s.registry)

	s.registerHandlers()
	s.handler = s.instrument(s.router)
	return s, nil
}

// DefaultWorkspace is the workspace "/" redirects to.
func (s *Server) DefaultWorkspace() string {
	return *s.namespace.Load()
}

// ApplyConfig takes over the reloadable settings of cfg. The listen
// address and cluster connection are fixed for the server's lifetime.
func (s *Server) ApplyConfig(cfg *config.Config) error {
	if cfg.Namespace == "" {
		return errors.New("namespace must not be empty")
	}
	ns := cfg.Namespace
	if old := s.namespace.Swap(&ns); *old != ns {
		s.logger.Info("Default workspace changed from %s to %s", *old, ns)
	}
	return nil
}

// Handler returns the fully instrumented handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("Console listening on %s", ln.Addr())
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("console shutdown: %w", err)
	}
	s.logger.Info("Console stopped")
	return nil
}

// Name implements lifecycle.Component.
func (s *Server) Name() string {
	return "console"
}
