// Package server provides the HTTP server and routing for Stockfolio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"stockfolio/internal/clients/alphavantage"
	"stockfolio/internal/config"
	"stockfolio/internal/database"
	"stockfolio/internal/modules/ledger"
	ledgerhandlers "stockfolio/internal/modules/ledger/handlers"
	"stockfolio/internal/modules/sessions"
	stockshandlers "stockfolio/internal/modules/stocks/handlers"
	"stockfolio/internal/modules/users"
	usershandlers "stockfolio/internal/modules/users/handlers"
)

// Config holds server configuration
type Config struct {
	Log        zerolog.Logger
	UsersDB    *database.DB
	SessionsDB *database.DB
	Users      *users.Repository
	Sessions   *sessions.Repository
	Registry   *ledger.Registry
	Quotes     *alphavantage.Client
	Config     *config.Config
	Port       int
	DevMode    bool
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        zerolog.Logger
	usersDB    *database.DB
	sessionsDB *database.DB
	cfg        *config.Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log,
		usersDB:    cfg.UsersDB,
		sessionsDB: cfg.SessionsDB,
		cfg:        cfg.Config,
	}

	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS - allow local frontends in dev mode
	if cfg.DevMode {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	systemHandlers := NewSystemHandlers(cfg.Log, cfg.UsersDB, cfg.SessionsDB)
	usersHandler := usershandlers.NewHandler(cfg.Users, cfg.Sessions, cfg.Registry, cfg.Log)
	stocksHandler := stockshandlers.NewHandler(cfg.Quotes, cfg.Log)
	ledgerHandler := ledgerhandlers.NewHandler(cfg.Registry, cfg.Log)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", systemHandlers.HandleHealth)

		usersHandler.RegisterRoutes(r)
		stocksHandler.RegisterRoutes(r)
		ledgerHandler.RegisterRoutes(r)
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Router returns the chi router (used by tests)
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestLogger logs each request with method, path, status and duration
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
