// Package web provides the HTTP adapter for scanning, history and catalog
// import.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/config"
	"github.com/JonMunkholm/scanmaster/internal/core"
	"github.com/JonMunkholm/scanmaster/internal/database"
	webmw "github.com/JonMunkholm/scanmaster/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// HealthChecker reports on the database pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Stats() database.PoolStats
}

// Server is the HTTP server for the scanning application.
type Server struct {
	service  *core.Service
	health   HealthChecker
	cfg      *config.Config
	loc      *time.Location
	router   *chi.Mux
	server   *http.Server
	validate *validator.Validate
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, health HealthChecker, cfg *config.Config) *Server {
	loc, err := cfg.Export.Location()
	if err != nil {
		loc = time.Local
	}

	s := &Server{
		service:  service,
		health:   health,
		cfg:      cfg,
		loc:      loc,
		router:   chi.NewRouter(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Server.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(webmw.Actor)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Scanning
		r.With(middleware.Timeout(s.cfg.Server.ScanTimeout)).Post("/escanear", s.handleScan)

		// History
		r.With(middleware.Compress(5)).Get("/lecturas", s.handleReadings)
		r.Get("/exportar", s.handleExport)

		// Catalog
		r.Post("/articulos/importar", s.handleImport)
		r.Get("/articulos/count", s.handleArticleCount)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "path", r.URL.Path, "error", err)
	}
}
