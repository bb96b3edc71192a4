package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common/config"
	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/common/logger"
)

func main() {
	logger.SetupConsole()

	path := flag.String("path", "migrations", "path to the migrations directory")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file, using environment variables")
	}

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()

	direction := flag.Arg(0)
	if direction == "" {
		direction = "up"
	}

	switch direction {
	case "up":
		if err := db.RunMigrations(cfg.PgSql.URL(), *path); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		log.Info().Msg("Migrations applied")
	case "down":
		if err := db.RollbackMigrations(cfg.PgSql.URL(), *path); err != nil {
			log.Fatal().Err(err).Msg("Rollback failed")
		}
		log.Info().Msg("Last migration rolled back")
	default:
		log.Error().Str("direction", direction).Msg("Unknown direction, expected up or down")
		os.Exit(1)
	}
}
