// Package server provides the HTTP API for the C2 demo backend.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kvasnier/c2-demo/internal/chat"
	"github.com/kvasnier/c2-demo/internal/config"
	"github.com/kvasnier/c2-demo/internal/middleware"
	"github.com/kvasnier/c2-demo/internal/scenario"
	"github.com/kvasnier/c2-demo/internal/storage"
)

// Server is the HTTP server for the C2 demo API.
type Server struct {
	storage   storage.Storage
	pipeline  *scenario.Pipeline
	responder *chat.Responder
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	store storage.Storage,
	pipeline *scenario.Pipeline,
	responder *chat.Responder,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		storage:   store,
		pipeline:  pipeline,
		responder: responder,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes and middleware mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS(s.config.Server.CORSOrigins))

	r.Get("/units", s.handleListUnits)
	r.Post("/units", s.handleCreateUnit)
	r.Get("/pois", s.handleListPOIs)
	r.Post("/pois", s.handleCreatePOI)
	r.Post("/chat", s.handleChat)
	r.Post("/scenario/reset", s.handleScenarioReset)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
