package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common/config"
	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/common/logger"
	"github.com/storefront-crm/lead-ingest-service/common/tenant"
	"github.com/storefront-crm/lead-ingest-service/importer"
	"github.com/storefront-crm/lead-ingest-service/leads"
	"github.com/storefront-crm/lead-ingest-service/repository"
)

// importleads loads a JSON, CSV, or XLSX export into a tenant's leads,
// deduplicating against what is already stored.
func main() {
	logger.SetupConsole()

	tenantID := flag.String("tenant", os.Getenv("TENANT_ID"), "tenant to import leads for")
	file := flag.String("file", "", "path to the file to import")
	format := flag.String("format", "", "file format (json, csv, xlsx); inferred from the extension when empty")
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
	if *file == "" {
		log.Error().Msg("No file given, set -file")
		os.Exit(1)
	}

	ctx := context.Background()

	dbConn, err := db.SetupDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup database")
	}
	defer dbConn.Close()

	// Run the whole import on a tenant-pinned connection so the session
	// variable is in place for row-level-security setups.
	err = tenant.WithTenant(ctx, dbConn.Pool, *tenantID, func(ctx context.Context, q *repository.Queries) error {
		leadRepo := leads.NewLeadRepository(q, dbConn.Pool)
		imp := importer.New(
			leads.NewReconciler(leadRepo),
			leads.NewBatchWriter(leadRepo, cfg.Ingest.InsertChunkSize),
			cfg.Ingest.DefaultSource,
		)

		result, err := imp.ImportFile(ctx, *tenantID, *file, *format)
		if err != nil {
			return err
		}

		for _, itemErr := range result.Errors {
			log.Warn().Err(itemErr.Err).Str("source", itemErr.Source).Msg("Record could not be written")
		}

		log.Info().
			Str("tenant", *tenantID).
			Str("file", *file).
			Int("rows", result.Rows).
			Int("inserted", result.Inserted).
			Int("updated", result.Updated).
			Int("skipped", result.Skipped).
			Int("errors", len(result.Errors)).
			Msg("Import finished")
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Import failed")
	}
}
