package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/common/config"
	"github.com/storefront-crm/lead-ingest-service/common/models"
	"github.com/storefront-crm/lead-ingest-service/common/work"
	"github.com/storefront-crm/lead-ingest-service/leads"
	"github.com/storefront-crm/lead-ingest-service/scraper"
)

type jobOutcome int

const (
	outcomeSuccess jobOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// ProcessorConfig holds the run parameters of the job processor.
type ProcessorConfig struct {
	BatchLimit      int
	Concurrency     int
	InterChunkDelay time.Duration
	StaleJobTimeout time.Duration
}

// ProcessorConfigFrom maps the ingest section of the service config.
func ProcessorConfigFrom(cfg config.IngestConfig) ProcessorConfig {
	return ProcessorConfig{
		BatchLimit:      cfg.BatchLimit,
		Concurrency:     cfg.Concurrency,
		InterChunkDelay: cfg.InterChunkDelay,
		StaleJobTimeout: cfg.StaleJobTimeout,
	}
}

func (c *ProcessorConfig) applyDefaults() {
	if c.BatchLimit <= 0 {
		c.BatchLimit = 200
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	if c.StaleJobTimeout <= 0 {
		c.StaleJobTimeout = 24 * time.Hour
	}
}

// Processor drains the pending job queue for one tenant. Jobs are claimed in
// FIFO order, processed in bounded concurrent chunks, and always leave a run
// in a terminal state. The guard and event publisher are optional.
type Processor struct {
	jobs    JobService
	leads   leads.LeadService
	scraper scraper.Scraper
	guard   *work.RunGuard
	events  EventPublisher
	cfg     ProcessorConfig
}

func NewProcessor(jobSvc JobService, leadSvc leads.LeadService, sc scraper.Scraper, cfg ProcessorConfig) *Processor {
	cfg.applyDefaults()
	return &Processor{
		jobs:    jobSvc,
		leads:   leadSvc,
		scraper: sc,
		cfg:     cfg,
	}
}

// WithGuard serialises runs per tenant through Redis.
func (p *Processor) WithGuard(guard *work.RunGuard) *Processor {
	p.guard = guard
	return p
}

// WithEvents publishes job lifecycle events after each job.
func (p *Processor) WithEvents(events EventPublisher) *Processor {
	p.events = events
	return p
}

// ProcessPending runs one batch for the tenant: requeue stale running jobs,
// claim up to BatchLimit pending jobs, and process them in chunks of
// Concurrency with a delay between chunks. Per-job errors are absorbed into
// the summary; only infrastructure failures abort the run.
func (p *Processor) ProcessPending(ctx context.Context, tenantID string) (Summary, error) {
	if tenantID == "" {
		return Summary{}, common.ErrTenantRequired
	}

	start := time.Now()

	if p.guard != nil {
		if err := p.guard.Acquire(ctx, tenantID); err != nil {
			return Summary{}, err
		}
		defer func() {
			if err := p.guard.Release(context.Background(), tenantID); err != nil {
				log.Warn().
					Err(err).
					Str("tenantID", tenantID).
					Msg("Failed to release run guard")
			}
		}()
	}

	var summary Summary

	requeued, err := p.jobs.RequeueStale(ctx, tenantID, p.cfg.StaleJobTimeout)
	if err != nil {
		return summary, fmt.Errorf("requeueing stale jobs: %w", err)
	}
	summary.Requeued = requeued
	if requeued > 0 {
		log.Info().
			Str("tenantID", tenantID).
			Int64("requeued", requeued).
			Msg("Requeued stale running jobs")
	}

	pending, err := p.jobs.ClaimPending(ctx, tenantID, int32(p.cfg.BatchLimit))
	if err != nil {
		return summary, fmt.Errorf("claiming pending jobs: %w", err)
	}
	if len(pending) == 0 {
		summary.Elapsed = time.Since(start)
		log.Info().
			Str("tenantID", tenantID).
			Msg("No pending jobs to process")
		return summary, nil
	}

	log.Info().
		Str("tenantID", tenantID).
		Int("jobs", len(pending)).
		Int("concurrency", p.cfg.Concurrency).
		Msg("Processing pending jobs")

	chunks := lo.Chunk(pending, p.cfg.Concurrency)
	for ci, chunk := range chunks {
		tasks := make([]work.Executor[jobOutcome], 0, len(chunk))
		for _, job := range chunk {
			job := job
			tasks = append(tasks, work.MustNewTask(func(ctx context.Context) (jobOutcome, error) {
				return p.processJob(ctx, tenantID, job)
			}, work.WithID[jobOutcome](job.ID)))
		}

		for _, res := range work.RunChunk(ctx, p.cfg.Concurrency, tasks) {
			summary.Processed++
			switch {
			case res.Error != nil || res.Result == outcomeFailed:
				summary.Failed++
			case res.Result == outcomeSkipped:
				summary.Skipped++
			default:
				summary.Success++
			}
		}

		log.Debug().
			Str("tenantID", tenantID).
			Int("processed", summary.Processed).
			Int("total", len(pending)).
			Msg("Chunk finished")

		if ci < len(chunks)-1 && p.cfg.InterChunkDelay > 0 {
			select {
			case <-time.After(p.cfg.InterChunkDelay):
			case <-ctx.Done():
				summary.Elapsed = time.Since(start)
				return summary, ctx.Err()
			}
		}
	}

	summary.Elapsed = time.Since(start)

	if p.events != nil {
		p.events.RunCompleted(ctx, tenantID, summary)
	}

	log.Info().
		Str("tenantID", tenantID).
		Int("processed", summary.Processed).
		Int("success", summary.Success).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("elapsed", summary.Elapsed).
		Msg("Processing run finished")

	return summary, nil
}

// processJob drives one job to a terminal state. Errors are reported through
// the job row and the summary, never up the call stack.
func (p *Processor) processJob(ctx context.Context, tenantID string, job Job) (jobOutcome, error) {
	if err := p.jobs.MarkRunning(ctx, job.ID); err != nil {
		// The job changed state between claim and run (cancelled, or picked
		// up elsewhere). Leave it alone.
		log.Warn().
			Err(err).
			Str("jobID", job.ID).
			Msg("Could not claim job, skipping")
		return outcomeFailed, nil
	}

	outcome, err := p.runJob(ctx, tenantID, job)
	if err != nil {
		log.Error().
			Err(err).
			Str("jobID", job.ID).
			Str("url", job.URL).
			Msg("Job processing failed")
		if markErr := p.jobs.MarkFailed(ctx, job.ID, err); markErr != nil {
			log.Warn().
				Err(markErr).
				Str("jobID", job.ID).
				Msg("Failed to record job failure")
		}
		if p.events != nil {
			p.events.JobFailed(ctx, job, err)
		}
		return outcomeFailed, nil
	}

	if p.events != nil {
		p.events.JobCompleted(ctx, job)
	}
	return outcome, nil
}

func (p *Processor) runJob(ctx context.Context, tenantID string, job Job) (jobOutcome, error) {
	result, err := p.scraper.Scrape(ctx, job.URL)
	if err != nil {
		return outcomeFailed, fmt.Errorf("scraping %s: %w", job.URL, err)
	}

	existing, err := p.leads.FindBySource(ctx, tenantID, job.URL)
	if err != nil {
		return outcomeFailed, fmt.Errorf("checking for existing lead: %w", err)
	}
	if lead, ok := existing.Get(); ok {
		log.Info().
			Str("jobID", job.ID).
			Str("url", job.URL).
			Str("leadID", lead.ID).
			Msg("Lead already exists for source, skipping insert")
		if err := p.jobs.MarkCompleted(ctx, job.ID, result); err != nil {
			return outcomeFailed, fmt.Errorf("completing job: %w", err)
		}
		return outcomeSkipped, nil
	}

	if _, err := p.leads.Create(ctx, tenantID, leads.NewLead{
		Source:        job.URL,
		Data:          result,
		Status:        models.LeadStatusNew,
		ScrapingJobID: job.ID,
	}); err != nil {
		return outcomeFailed, fmt.Errorf("creating lead: %w", err)
	}

	if err := p.jobs.MarkCompleted(ctx, job.ID, result); err != nil {
		return outcomeFailed, fmt.Errorf("completing job: %w", err)
	}
	return outcomeSuccess, nil
}
