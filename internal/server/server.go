// Package server provides the HTTP server and routing for the bank mirror API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/aristath/bankmirror/internal/config"
	"github.com/aristath/bankmirror/internal/di"
	"github.com/aristath/bankmirror/internal/httputil"
	accountshandlers "github.com/aristath/bankmirror/internal/modules/accounts/handlers"
	ordershandlers "github.com/aristath/bankmirror/internal/modules/orders/handlers"
	settingshandlers "github.com/aristath/bankmirror/internal/modules/settings/handlers"
	synclogshandlers "github.com/aristath/bankmirror/internal/modules/synclog/handlers"
	transactionshandlers "github.com/aristath/bankmirror/internal/modules/transactions/handlers"
)

// requestTimeout bounds every non-streaming API request.
const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	eventsHandler  *EventsStreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
	}

	// Typed nils would defeat the nil checks in SystemHandlers.
	var backups BackupRunner
	if cfg.Container.BackupService != nil {
		backups = cfg.Container.BackupService
	}
	s.systemHandlers = NewSystemHandlers(
		cfg.Container.DB,
		cfg.Container.Scheduler,
		cfg.Container.EventBus,
		backups,
		cfg.Container.MaintenanceService,
		cfg.Log,
	)
	s.eventsHandler = NewEventsStreamHandler(cfg.Container.EventBus, cfg.Log)

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket streams stay open; API requests are bounded by requestTimeout
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging and metrics
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metricsMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "x-http-request-info", "x-http-session-info"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(requireAPIKey(s.cfg.APIKey, s.log))

		// Streaming routes live outside the request timeout
		r.Get("/events/ws", s.eventsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			accountshandlers.NewHandler(s.container.AccountService, s.log).RegisterRoutes(r)
			transactionshandlers.NewHandler(s.container.TransactionService, s.log).RegisterRoutes(r)
			synclogshandlers.NewHandler(s.container.SyncLogRepo, s.log).RegisterRoutes(r)
			settingshandlers.NewHandler(s.container.SettingsService, s.log).RegisterRoutes(r)
			ordershandlers.NewHandler(s.container.OrderService, s.log).RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/backups", s.systemHandlers.HandleListBackups)
				r.Post("/backups", s.systemHandlers.HandleCreateBackup)
				r.Post("/maintenance", s.systemHandlers.HandleRunMaintenance)
			})
		})
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "bankmirror",
	}
	if err := s.container.DB.HealthCheck(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		response["status"] = "degraded"
		response["error"] = err.Error()
	}

	httputil.WriteJSON(w, s.log, status, response)
}
