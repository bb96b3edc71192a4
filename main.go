package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common/config"
	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/common/logger"
	"github.com/storefront-crm/lead-ingest-service/common/tenant"
	"github.com/storefront-crm/lead-ingest-service/common/work"
	"github.com/storefront-crm/lead-ingest-service/jobs"
	"github.com/storefront-crm/lead-ingest-service/leads"
	"github.com/storefront-crm/lead-ingest-service/messaging"
	"github.com/storefront-crm/lead-ingest-service/scraper"
)

func main() {
	// INITIATE CONFIGURATION
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file, using environment variables")
	}

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()

	// Create a base context with cancel for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// INITIATE DATABASES
	dbConn, err := db.SetupDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup database")
	}
	defer dbConn.Close()

	// Initialize zerolog database hooks
	logger.InitializeLogging(dbConn)
	log.Info().Msg("Zerolog database hooks initialized")

	// INITIATE NATS BROKER
	broker, err := messaging.NewBroker(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup NATS broker")
	}
	defer broker.Close()

	// Build the processing pipeline
	jobStore := jobs.NewJobStore(dbConn.Queries)
	leadRepo := leads.NewLeadRepository(dbConn.Queries, dbConn.Pool)
	httpScraper := scraper.NewHTTPScraper(scraper.Config{
		Timeout:    cfg.Ingest.ScrapeTimeout,
		RatePerSec: cfg.Ingest.ScrapeRatePerSec,
	})
	processor := jobs.NewProcessor(jobStore, leadRepo, httpScraper, jobs.ProcessorConfigFrom(cfg.Ingest)).
		WithGuard(work.NewRunGuard(dbConn.Redis)).
		WithEvents(messaging.NewJobEvents(broker))

	// Processing runs can also be triggered over NATS
	err = broker.Subscribe(messaging.SubjectProcessRequest, func(msg *nats.Msg) {
		var req messaging.ProcessRequestPayload
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.TenantID == "" {
			log.Warn().Err(err).Msg("Ignoring malformed process request")
			return
		}
		go func() {
			runCtx := tenant.WithID(context.Background(), req.TenantID)
			if _, err := processor.ProcessPending(runCtx, req.TenantID); err != nil {
				log.Error().Err(err).Str("tenantID", req.TenantID).Msg("Triggered processing run failed")
			}
		}()
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe to process requests")
	}

	// INITIATE SERVER
	server, err := NewAppHttpServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create the server")
	}

	// Inject dependencies
	server.SetDB(dbConn)
	server.SetBroker(broker)
	server.SetProcessor(processor)

	// Setup routes
	server.setupRoute()

	// Start server in a goroutine
	go func() {
		if err := server.start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			cancel()
		}
	}()

	log.Info().Str("address", cfg.Listen.Addr()).Msg("Server started successfully")

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("Shutdown signal received")

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server gracefully stopped")
}
