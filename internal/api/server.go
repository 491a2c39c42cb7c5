package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Builds is the part of the pipeline the API serves from.
type Builds interface {
	Latest() *pipeline.Result
	GetBuild(id string) *pipeline.Result
	Rebuild(ctx context.Context) (*pipeline.Result, pipeline.BuildStatus, error)
}

// Server is the HTTP API server for docnav.
type Server struct {
	router chi.Router
	builds Builds
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(builds Builds, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		builds: builds,
		log:    log,
		cfg:    cfg,
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
	r.Get("/api/sidebar", s.handleSidebars)
	r.Get("/api/sidebar/{locale}", s.handleLocaleSidebar)
	r.Get("/api/builds/{buildID}", s.handleGetBuild)
	r.Post("/api/outline", s.handleOutline)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/rebuild", s.handleRebuild)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
