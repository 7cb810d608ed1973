// Package http exposes the setup and operations surface: health, OAuth
// setup flow, manual sync trigger, status, and daily metrics entry.
package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aegis-labs/aegis-sync/internal/core/ports/driven"
	"github.com/aegis-labs/aegis-sync/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux

	// BaseURL builds default OAuth redirect URIs when a request does not
	// carry one.
	baseURL string

	// Services
	tokenService driving.TokenService
	syncService  driving.SyncService

	// Infrastructure
	metrics driven.MetricsStore
	db      Pinger
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	BaseURL string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host: "0.0.0.0",
		Port: 8080,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	tokenService driving.TokenService,
	syncService driving.SyncService,
	metrics driven.MetricsStore,
	db Pinger,
) *Server {
	s := &Server{
		router:       http.NewServeMux(),
		baseURL:      cfg.BaseURL,
		tokenService: tokenService,
		syncService:  syncService,
		metrics:      metrics,
		db:           db,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // manual sync runs inline
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)

	// OAuth setup flow
	s.router.HandleFunc("GET /oauth/{provider}/authorize_url", s.handleAuthorizeURL)
	s.router.HandleFunc("GET /oauth/{provider}/callback", s.handleOAuthCallback)
	s.router.HandleFunc("POST /oauth/{provider}/exchange", s.handleExchangeCode)
	s.router.HandleFunc("POST /oauth/{provider}/reset", s.handleResetCredential)

	// Sync
	s.router.HandleFunc("POST /sync", s.handleTriggerSync)
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Daily metrics
	s.router.HandleFunc("POST /metrics", s.handleUpsertMetric)
	s.router.HandleFunc("GET /metrics", s.handleListMetrics)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-stop
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
