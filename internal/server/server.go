// Package server wires storage, services, handlers and routes together and
// runs the HTTP server.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  store (sqlite.DB or memory.Store) → service.Facade → resource handlers
//	  PasswordService + TokenService   → service.AuthService → AuthHandler
//
// Everything is assembled here so the rest of the code base only sees the
// interfaces it needs.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/listings/internal/auth"
	"github.com/sakif/listings/internal/config"
	"github.com/sakif/listings/internal/handler"
	"github.com/sakif/listings/internal/middleware"
	"github.com/sakif/listings/internal/repository"
	"github.com/sakif/listings/internal/repository/memory"
	sqliteRepo "github.com/sakif/listings/internal/repository/sqlite"
	"github.com/sakif/listings/internal/service"
)

// Server represents the HTTP server and all its dependencies. It owns the
// store and closes it on shutdown when the store holds a connection.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
	tokens *auth.TokenService
}

// New opens the configured store and builds the router.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		tokens: tokens,
	}
	s.setupRoutes()

	return s, nil
}

func openStore(cfg config.Config) (repository.Store, error) {
	if cfg.StorageDriver == config.DriverMemory {
		return memory.New(), nil
	}

	// 0755 = owner can read/write/execute, others can read/execute.
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// Handler returns the router, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// setupRoutes configures middleware and routes.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (logged by Logger)
// 2. RealIP: extracts the client IP from proxy headers
// 3. Recoverer: turns panics into 500s
// 4. Logger: logs each request with timing info
//
// Reads are public. Mutations go through RequireAuth, except POST /users,
// which must work anonymously while the store has no users yet.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords := auth.NewPasswordService(s.config.BcryptCost)
	facade := service.New(s.store, passwords, s.logger)
	authService := service.NewAuthService(s.store.Users(), s.tokens, passwords, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.tokens.TTL(), s.config.CookieSecure, s.logger)
	users := handler.NewUserHandler(facade, s.logger)
	amenities := handler.NewAmenityHandler(facade, s.logger)
	places := handler.NewPlaceHandler(facade, s.logger)
	reviews := handler.NewReviewHandler(facade, s.logger)

	requireAuth := auth.RequireAuth(s.tokens)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", users.HandleList)
			r.With(auth.OptionalAuth(s.tokens)).Post("/", users.HandleCreate)
			r.Get("/{id}", users.HandleGet)
			r.With(requireAuth).Put("/{id}", users.HandleUpdate)
			r.Get("/{id}/places", users.HandleListPlaces)
			r.Get("/{id}/reviews", users.HandleListReviews)
		})

		r.Route("/amenities", func(r chi.Router) {
			r.Get("/", amenities.HandleList)
			r.Get("/{id}", amenities.HandleGet)
			r.With(requireAuth).Post("/", amenities.HandleCreate)
			r.With(requireAuth).Put("/{id}", amenities.HandleUpdate)
		})

		r.Route("/places", func(r chi.Router) {
			r.Get("/", places.HandleList)
			r.Get("/{id}", places.HandleGet)
			r.Get("/{id}/reviews", places.HandleListReviews)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", places.HandleCreate)
				r.Put("/{id}", places.HandleUpdate)
				r.Delete("/{id}", places.HandleDelete)
				r.Post("/{id}/amenities", places.HandleAddAmenities)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", reviews.HandleList)
			r.Get("/{id}", reviews.HandleGet)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", reviews.HandleCreate)
				r.Put("/{id}", reviews.HandleUpdate)
				r.Delete("/{id}", reviews.HandleDelete)
			})
		})
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests (30s) and closes the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("storage", s.config.StorageDriver),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
