package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/common/config"
	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/common/logger"
	"github.com/storefront-crm/lead-ingest-service/common/tenant"
	"github.com/storefront-crm/lead-ingest-service/common/work"
	"github.com/storefront-crm/lead-ingest-service/jobs"
	"github.com/storefront-crm/lead-ingest-service/leads"
	"github.com/storefront-crm/lead-ingest-service/scraper"
)

// processjobs drains the pending scraping jobs of one tenant and exits.
// Meant to be run from cron or an operator shell.
func main() {
	logger.SetupConsole()

	tenantID := flag.String("tenant", os.Getenv("TENANT_ID"), "tenant to process jobs for")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file, using environment variables")
	}

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()

	if *tenantID == "" {
		log.Error().Msg("No tenant given, set -tenant or TENANT_ID")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbConn, err := db.SetupDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup database")
	}
	defer dbConn.Close()

	jobStore := jobs.NewJobStore(dbConn.Queries)
	leadRepo := leads.NewLeadRepository(dbConn.Queries, dbConn.Pool)
	httpScraper := scraper.NewHTTPScraper(scraper.Config{
		Timeout:    cfg.Ingest.ScrapeTimeout,
		RatePerSec: cfg.Ingest.ScrapeRatePerSec,
	})
	processor := jobs.NewProcessor(jobStore, leadRepo, httpScraper, jobs.ProcessorConfigFrom(cfg.Ingest)).
		WithGuard(work.NewRunGuard(dbConn.Redis))

	runCtx := tenant.WithID(ctx, *tenantID)
	summary, err := processor.ProcessPending(runCtx, *tenantID)
	if err != nil {
		if errors.Is(err, common.ErrRunInProgress) {
			log.Error().Str("tenant", *tenantID).Msg("Another processing run is already active for this tenant")
			os.Exit(1)
		}
		log.Fatal().Err(err).Str("tenant", *tenantID).Msg("Processing run failed")
	}

	logSvc := logger.NewLogService(dbConn)
	if err := logSvc.RunCompleted(context.Background(), *tenantID, summary.Processed, summary.Success, summary.Failed, summary.Skipped, summary.Elapsed); err != nil {
		log.Warn().Err(err).Msg("Failed to persist run summary")
	}

	log.Info().
		Str("tenant", *tenantID).
		Int("processed", summary.Processed).
		Int("success", summary.Success).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Int64("requeued", summary.Requeued).
		Dur("elapsed", summary.Elapsed).
		Msg("Run finished")
}
