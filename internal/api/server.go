// Package api exposes the operational HTTP surface: health, run
// history, sanitized configuration and manual run triggers.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/weeklyreport/internal/config"
	"github.com/dgallion1/weeklyreport/internal/generate"
	"github.com/dgallion1/weeklyreport/internal/state"
)

// PhaseRunner is the slice of the pipeline the server triggers.
type PhaseRunner interface {
	Preview(ctx context.Context) error
	Final(ctx context.Context) error
}

// LLMStats reports model call latency aggregates.
type LLMStats interface {
	Snapshot() generate.StatsSnapshot
}

// Server is the ops HTTP server for the report service.
type Server struct {
	router chi.Router
	runner PhaseRunner
	store  *state.Store
	llm    LLMStats
	log    *slog.Logger
	cfg    config.Config

	mu      sync.Mutex
	running map[string]bool
}

// NewServer creates and configures the HTTP server. llm may be nil.
func NewServer(runner PhaseRunner, store *state.Store, llm LLMStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		runner:  runner,
		store:   store,
		llm:     llm,
		log:     log,
		cfg:     cfg,
		running: map[string]bool{},
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.TriggerAPIKey, s.log))

		r.Get("/status", s.handleStatus)
		r.Get("/config", s.handleConfig)
		r.Post("/trigger/{jobType}", s.handleTrigger)
	})

	s.router = r
}
