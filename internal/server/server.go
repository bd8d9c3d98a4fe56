// Package server provides the HTTP server for the ziyad-book service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Wahyuw1j4/ziyad-book/internal/config"
	"github.com/Wahyuw1j4/ziyad-book/internal/domain"
	"github.com/Wahyuw1j4/ziyad-book/internal/notify"
	"github.com/Wahyuw1j4/ziyad-book/internal/repository/memory"
	"github.com/Wahyuw1j4/ziyad-book/internal/repository/postgres"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/book"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/borrow"
	"github.com/Wahyuw1j4/ziyad-book/internal/services/user"
)

// Server represents the main HTTP server.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	httpServer *http.Server
	mux        *http.ServeMux

	// Infrastructure
	db       *postgres.DB
	redisPub *notify.RedisPublisher

	// Repository interfaces (abstracted for swappable backends)
	bookRepo   book.Repository
	userRepo   user.Repository
	borrowRepo borrow.Repository

	// Services
	bookService   *book.Service
	userService   *user.Service
	borrowService *borrow.Service
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithPostgreSQL enables PostgreSQL as the data store.
func WithPostgreSQL(db *postgres.DB) ServerOption {
	return func(s *Server) {
		s.db = db
	}
}

// WithRedis enables post-commit event publishing over Redis.
func WithRedis(pub *notify.RedisPublisher) ServerOption {
	return func(s *Server) {
		s.redisPub = pub
	}
}

// New creates a new server instance.
func New(cfg *config.Config, logger *zap.Logger, opts ...ServerOption) *Server {
	mux := http.NewServeMux()

	s := &Server{
		config: cfg,
		logger: logger,
		mux:    mux,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.initRepositories()
	s.initServices()
	s.registerRoutes()

	handler := s.setupMiddleware(mux)
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// initRepositories initializes data repositories.
func (s *Server) initRepositories() {
	if s.db != nil {
		s.logger.Info("Initializing PostgreSQL repositories")
		s.bookRepo = postgres.NewBookRepository(s.db, s.logger)
		s.userRepo = postgres.NewUserRepository(s.db, s.logger)
		s.borrowRepo = postgres.NewBorrowRepository(s.db, s.logger)
		return
	}

	// In-memory repositories (development mode)
	s.logger.Info("Initializing in-memory repositories")
	store := memory.NewStore()
	s.bookRepo = memory.NewBookRepository(store)
	s.userRepo = memory.NewUserRepository(store)
	s.borrowRepo = memory.NewBorrowRepository(store, s.logger)
}

// initServices initializes business logic services.
func (s *Server) initServices() {
	var publishers []borrow.Publisher
	if s.redisPub != nil {
		publishers = append(publishers, s.redisPub)
	}
	if s.config.Webhook.URL != "" {
		publishers = append(publishers, notify.NewWebhookNotifier(s.config.Webhook, s.logger))
	}

	s.bookService = book.NewService(s.bookRepo, s.logger)
	s.userService = user.NewService(s.userRepo, s.logger)
	s.borrowService = borrow.NewService(s.borrowRepo, s.logger, publishers...)

	s.logger.Info("Services initialized",
		zap.Bool("postgres", s.db != nil),
		zap.Int("event_publishers", len(publishers)),
	)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes() {
	// Health endpoints
	s.mux.HandleFunc("GET /health", s.healthHandler)
	s.mux.HandleFunc("GET /ready", s.readyHandler)

	// Books
	s.mux.HandleFunc("POST /books", s.handleCreateBook)
	s.mux.HandleFunc("GET /books", s.handleGetBooks)
	s.mux.HandleFunc("GET /books/{id}", s.handleGetBookByID)
	s.mux.HandleFunc("PUT /books/{id}", s.handleUpdateBook)
	s.mux.HandleFunc("DELETE /books/{id}", s.handleDeleteBook)

	// Users
	s.mux.HandleFunc("POST /users", s.handleCreateUser)
	s.mux.HandleFunc("GET /users", s.handleGetUsers)
	s.mux.HandleFunc("GET /users/{id}", s.handleGetUserByID)
	s.mux.HandleFunc("PUT /users/{id}", s.handleUpdateUser)
	s.mux.HandleFunc("DELETE /users/{id}", s.handleDeleteUser)

	// Borrows
	s.mux.HandleFunc("POST /borrows", s.handleCreateBorrow)
	s.mux.HandleFunc("GET /borrows", s.handleGetBorrows)
	s.mux.HandleFunc("GET /borrows/{id}", s.handleGetBorrowByID)
	s.mux.HandleFunc("PUT /borrows/{id}/return", s.handleReturnBorrow)
	s.mux.HandleFunc("DELETE /borrows/{id}", s.handleDeleteBorrow)

	s.logger.Info("All routes registered")
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware(handler http.Handler) http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   s.config.CORS.AllowedMethods,
		AllowedHeaders:   s.config.CORS.AllowedHeaders,
		AllowCredentials: s.config.CORS.AllowCredentials,
		MaxAge:           86400,
	})

	handler = corsHandler.Handler(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.recoveryMiddleware(handler)

	return handler
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if r.URL.Path == "/health" || r.URL.Path == "/ready" {
			return
		}

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
		)
	})
}

// recoveryMiddleware recovers from panics, rendering the same error envelope
// every other failure gets.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("path", r.URL.Path),
				)
				s.writeError(w, r, domain.Internal(domain.CodeUnknown, "Internal Server Error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// healthHandler returns health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","service":"ziyad-book"}`)
}

// readyHandler reports whether backing stores are reachable.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ready := true

	if s.db != nil {
		if err := s.db.Health(ctx); err != nil {
			ready = false
		}
	}
	if s.redisPub != nil {
		if err := s.redisPub.Health(ctx); err != nil {
			ready = false
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if ready {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"ready":true}`)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"ready":false}`)
	}
}

// Handler returns the fully assembled HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting server", zap.String("address", s.config.Server.Address()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server and closes infrastructure
// connections.
func (s *Server) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down server...")

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}

	if s.redisPub != nil {
		if err := s.redisPub.Close(); err != nil {
			s.logger.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if s.db != nil {
		s.db.Close()
	}

	s.logger.Info("Server stopped gracefully")
	return nil
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Server.Address()
}
