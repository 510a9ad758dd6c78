// Package server provides the HTTP API for predicate recommendations.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/predicate/internal/config"
	"github.com/hyperjump/predicate/internal/features"
	"github.com/hyperjump/predicate/internal/recommend"
	"github.com/hyperjump/predicate/internal/storage"
)

// maxBodyBytes bounds request bodies; candidate pools are the largest payloads.
const maxBodyBytes = 32 << 20

// InboxService reports the import inbox directories being watched.
type InboxService interface {
	Directories() []string
}

// Server is the HTTP server for the recommendation API.
type Server struct {
	recommender *recommend.Recommender
	storage     storage.Storage
	cache       *features.Cache
	config      *config.Config
	inbox       InboxService
	logger      *zap.Logger
	now         func() time.Time
	server      *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithCache sets the feature cache invalidated when candidates change.
func WithCache(c *features.Cache) Option {
	return func(s *Server) { s.cache = c }
}

// WithInbox exposes the watched inbox directories in the status response.
func WithInbox(inbox InboxService) Option {
	return func(s *Server) { s.inbox = inbox }
}

// NewServer creates a server with the given dependencies.
func NewServer(rec *recommend.Recommender, store storage.Storage, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		recommender: rec,
		storage:     store,
		config:      cfg,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the API routes with middleware applied.
func (s *Server) Router() http.Handler {
	timeout := time.Duration(s.config.Server.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommend", s.handleRecommend)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Post("/candidates", s.handleUpsertCandidates)
		r.Get("/candidates/{k_number}", s.handleGetCandidate)
		r.Delete("/candidates/{k_number}", s.handleDeleteCandidate)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
