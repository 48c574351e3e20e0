// Package api is the thin JSON serving surface over the pricing service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/gyeh/carecost/internal/config"
)

// Server wires the chi router to the pricing handlers.
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates the API server around the pricing service and catalog.
func NewServer(cfg *config.Config, pricer Pricer, catalog Catalog, log zerolog.Logger) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(pricer, catalog, cfg.DefaultCY, log),
	}

	s.setupMiddleware(log)
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware(log zerolog.Logger) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/workflows", func(r chi.Router) {
		r.Get("/", s.handlers.ListWorkflows)
		r.Get("/payers", s.handlers.ListPayers)
		r.Get("/localities", s.handlers.ListLocalities)
		r.Get("/{slug}/details", s.handlers.WorkflowDetails)
	})
}

// Router returns the chi router.
func (s *Server) Router() http.Handler {
	return s.router
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
