package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/docreader/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/docreader/internal/api/middlewares"
	"github.com/markdave123-py/docreader/internal/config"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewRouter builds and wires all routes.
func NewRouter(cfg *config.Config, procHandler *handlers.ProcessHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", handlers.Health)

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.JWTSecret != "" {
			api.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
		}
		api.Post("/run", procHandler.RunProcess)
		api.Get("/results/{job_id}", procHandler.GetResult)
		api.Get("/status", procHandler.Status)
		api.Get("/technologies", procHandler.ListTechnologies)
		api.Post("/config", procHandler.UpdateConfig)
	})

	return r
}

func NewServer(cfg *config.Config, procHandler *handlers.ProcessHandler) *Server {
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(cfg, procHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	slog.Info("http.listen", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("http.shutdown")
	return s.httpServer.Shutdown(ctx)
}
