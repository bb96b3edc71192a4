package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common/config"
	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/handler"
	"github.com/storefront-crm/lead-ingest-service/jobs"
	"github.com/storefront-crm/lead-ingest-service/messaging"
	"github.com/storefront-crm/lead-ingest-service/middlewares"
)

type AppHttpServer struct {
	router    *chi.Mux
	cfg       config.Config
	server    *http.Server
	db        *db.DB
	broker    *messaging.Broker
	processor *jobs.Processor
}

func NewAppHttpServer(cfg config.Config) (*AppHttpServer, error) {
	r := chi.NewRouter()

	// Basic CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-KEY", "X-Tenant-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(2 * time.Minute))

	server := &AppHttpServer{
		router: r,
		cfg:    cfg,
	}
	return server, nil
}

// SetDB sets the database dependency
func (s *AppHttpServer) SetDB(db *db.DB) {
	s.db = db
}

// SetBroker sets the NATS broker dependency
func (s *AppHttpServer) SetBroker(broker *messaging.Broker) {
	s.broker = broker
}

// SetProcessor sets the job processor dependency
func (s *AppHttpServer) SetProcessor(processor *jobs.Processor) {
	s.processor = processor
}

func (s *AppHttpServer) setupRoute() {
	r := s.router

	if s.broker == nil {
		log.Warn().Msg("NATS broker dependency not set")
	}

	// Public health endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"lead-ingest-service"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middlewares.ApiKey(s.cfg.Security.BackendApiKey))
		r.Use(middlewares.TenantID())

		// Handlers
		jobsHandler := handler.NewJobsHandler(s.db, s.processor, s.cfg)
		leadsHandler := handler.NewLeadsHandler(s.db)
		importsHandler := handler.NewImportsHandler(s.db, s.cfg)
		healthHandler := handler.NewHealthHandler(s.db)

		r.Mount("/jobs", jobsHandler.Router())
		r.Mount("/leads", leadsHandler.Router())
		r.Mount("/imports", importsHandler.Router())
		r.Mount("/health", healthHandler.Router())
	})
}

func (s *AppHttpServer) start() error {
	r := s.router
	cfg := s.cfg
	log.Info().Msg("Starting up server...")

	s.server = &http.Server{
		Addr:         cfg.Listen.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// This starts the server in a goroutine from main
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// stop gracefully shuts down the server
func (s *AppHttpServer) stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
