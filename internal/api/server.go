// Package api provides the punctfix REST API server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/FocuswithJustin/punctfix/core/cas"
	"github.com/FocuswithJustin/punctfix/internal/journal"
	"github.com/FocuswithJustin/punctfix/internal/logging"
	"github.com/FocuswithJustin/punctfix/internal/server"
	"github.com/FocuswithJustin/punctfix/internal/workerpool"
)

// Server owns the API's long-lived state: job queue, websocket hub, caches.
type Server struct {
	cfg     Config
	version string
	started time.Time

	svc     *Service
	journal *journal.Journal
	jobs    *JobStore
	hub     *Hub
	pool    *workerpool.Pool[*Job, *Job]
	limiter *RateLimiter

	mu     sync.Mutex
	closed bool
	stop   context.CancelFunc
	done   chan struct{}
}

// New validates cfg, opens the result store and starts the job workers and
// websocket hub. j may be nil to run without a journal. Call Close when done.
func New(cfg Config, j *journal.Journal, version string) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	store, err := cas.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		version: version,
		started: time.Now(),
		svc:     NewService(store, j, cfg.CacheTTL, cfg.CacheSize, cfg.Workers, cfg.bodyLimit()),
		journal: j,
		jobs:    NewJobStore(ctx),
		hub:     NewHub(cfg.AllowedOrigins),
		pool:    workerpool.New[*Job, *Job](cfg.JobWorkers, cfg.JobQueue),
		stop:    stop,
		done:    make(chan struct{}),
	}
	if cfg.RateLimitRequests > 0 {
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		})
	}

	go s.hub.Run(ctx)
	s.pool.Start(ctx, s.runJob)
	go func() {
		s.drainJobs()
		close(s.done)
	}()
	go s.pruneJobs(ctx)
	return s, nil
}

func (s *Server) submit(job *Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.pool.TrySubmit(job)
}

// pruneJobs forgets finished jobs after an hour.
func (s *Server) pruneJobs(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.jobs.Prune(time.Now().Add(-time.Hour)); n > 0 {
				logging.Debug("pruned finished jobs", "count", n)
			}
		}
	}
}

// Close cancels running jobs and stops background goroutines.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.pool.Close()
	<-s.done
	if s.limiter != nil {
		s.limiter.Close()
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/normalize", s.handleNormalize)
	mux.HandleFunc("/jobs", s.handleJobs)
	mux.HandleFunc("/jobs/{id}", s.handleJobByID)
	mux.HandleFunc("/results/{hash}", s.handleResult)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.Handle("/ws", s.hub)

	var handler http.Handler = server.SecurityHeaders(mux)
	handler = AuthMiddleware(s.cfg.Auth, handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	return logging.CombinedMiddleware(handler)
}

// Start serves until ctx is cancelled, then shuts down gracefully and closes s.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	port := s.cfg.Port
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	logging.ServerStartup("rest_api", "http", port,
		"host", s.cfg.Host,
		"data_dir", server.AbsPath(s.cfg.DataDir),
		"rate_limit_rpm", s.cfg.RateLimitRequests,
		"auth", s.cfg.Auth.Enabled,
		"journal", s.journal != nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logging.Info("shutting down", "timeout", timeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
