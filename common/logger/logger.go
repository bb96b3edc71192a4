package logger

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/common/db"
	"github.com/storefront-crm/lead-ingest-service/repository"
)

// SetupConsole switches the global logger to a human-readable console
// writer. Used by the operator CLIs.
func SetupConsole() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// IngestLogHook implements zerolog.Hook, persisting warn and error events
// to the ingest_logs table so partial failures stay inspectable after a run.
type IngestLogHook struct {
	db *db.DB
}

// NewIngestLogHook creates a new log hook
func NewIngestLogHook(db *db.DB) *IngestLogHook {
	return &IngestLogHook{
		db: db,
	}
}

// Run implements zerolog.Hook.Run
func (h *IngestLogHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level < zerolog.WarnLevel {
		return
	}

	event := LogEvent{
		EventType: level.String(),
		Message:   msg,
	}

	// Persist asynchronously so logging never blocks the pipeline.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.db.Queries.CreateIngestLog(ctx, event.params()); err != nil {
			// Plain stderr write; going through the hooked logger here
			// could recurse.
			stderrLogger := zerolog.New(os.Stderr)
			stderrLogger.Error().Err(err).Msg("Failed to persist log event")
		}
	}()
}

// InitializeLogging attaches the database hook to the global logger.
func InitializeLogging(db *db.DB) {
	log.Logger = log.Logger.Hook(NewIngestLogHook(db))
}

// LogEvent represents a pipeline event worth persisting
type LogEvent struct {
	TenantID  string
	JobID     string
	EventType string
	Message   string
	Details   interface{}
}

func (e LogEvent) params() repository.CreateIngestLogParams {
	detailsJSON := json.RawMessage("{}")
	if e.Details != nil {
		if b, err := json.Marshal(e.Details); err == nil {
			detailsJSON = b
		}
	}

	return repository.CreateIngestLogParams{
		ID:        uuid.New().String(),
		TenantID:  pgtype.Text{String: e.TenantID, Valid: e.TenantID != ""},
		JobID:     pgtype.Text{String: e.JobID, Valid: e.JobID != ""},
		EventType: e.EventType,
		Message:   pgtype.Text{String: e.Message, Valid: e.Message != ""},
		Details:   detailsJSON,
		CreatedAt: time.Now(),
	}
}

// LogService provides structured event logging to the database
type LogService struct {
	db *db.DB
}

// NewLogService creates a new log service
func NewLogService(db *db.DB) *LogService {
	return &LogService{
		db: db,
	}
}

// Log creates a log entry in the database
func (s *LogService) Log(ctx context.Context, event LogEvent) error {
	if err := s.db.Queries.CreateIngestLog(ctx, event.params()); err != nil {
		log.Error().Err(err).Msg("Failed to insert log into database")
		return err
	}

	logEntry := log.Info()
	if event.TenantID != "" {
		logEntry = logEntry.Str("tenantID", event.TenantID)
	}
	if event.JobID != "" {
		logEntry = logEntry.Str("jobID", event.JobID)
	}
	logEntry.
		Str("eventType", event.EventType).
		Interface("details", event.Details).
		Msg(event.Message)

	return nil
}

// JobFailed logs a failed scraping job with its cause
func (s *LogService) JobFailed(ctx context.Context, tenantID, jobID, url string, cause error) error {
	return s.Log(ctx, LogEvent{
		TenantID:  tenantID,
		JobID:     jobID,
		EventType: "job.failed",
		Message:   "Scraping job failed",
		Details: map[string]interface{}{
			"url":   url,
			"error": cause.Error(),
		},
	})
}

// RunCompleted logs the summary of a processing run
func (s *LogService) RunCompleted(ctx context.Context, tenantID string, processed, success, failed, skipped int, elapsed time.Duration) error {
	return s.Log(ctx, LogEvent{
		TenantID:  tenantID,
		EventType: "run.completed",
		Message:   "Processing run completed",
		Details: map[string]interface{}{
			"processed": processed,
			"success":   success,
			"failed":    failed,
			"skipped":   skipped,
			"elapsed":   elapsed.String(),
		},
	})
}
