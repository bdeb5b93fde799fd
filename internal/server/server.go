// Package server provides the HTTP API for kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/usage"
	"github.com/hyperjump/kotae/pkg/utils"
)

// requestTimeout bounds one ask: search, several fetches, renders and a model call.
const requestTimeout = 5 * time.Minute

// Asker answers questions and reports the usage it has accumulated.
type Asker interface {
	Run(ctx context.Context, req models.AskRequest) (*models.RunResult, error)
	Tracker() *usage.Tracker
}

// Server is the HTTP server for the kotae API.
type Server struct {
	asker   Asker
	storage storage.Storage // nil when run history is disabled
	dbPath  string
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server. store may be nil; dbPath is only used to report disk usage.
func NewServer(asker Asker, store storage.Storage, dbPath string, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		asker:   asker,
		storage: store,
		dbPath:  dbPath,
		config:  cfg,
		logger:  utils.OrNop(logger),
	}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
		r.Get("/usage", s.handleUsage)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
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
