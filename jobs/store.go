package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/common/models"
	"github.com/storefront-crm/lead-ingest-service/repository"
)

// ErrJobNotFound is returned when a job does not exist for the tenant.
var ErrJobNotFound = errors.New("scraping job not found")

// JobStore implements JobService against Postgres.
type JobStore struct {
	q *repository.Queries
}

func NewJobStore(q *repository.Queries) *JobStore {
	return &JobStore{q: q}
}

func (s *JobStore) Create(ctx context.Context, tenantID, url string) (Job, error) {
	if tenantID == "" {
		return Job{}, common.ErrTenantRequired
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Job{}, fmt.Errorf("failed to generate job ID: %w", err)
	}

	row, err := s.q.CreateScrapingJob(ctx, repository.CreateScrapingJobParams{
		ID:        id.String(),
		TenantID:  tenantID,
		Url:       strings.TrimSpace(url),
		Status:    string(models.JobStatusPending),
		CreatedAt: time.Now(),
	})
	if err != nil {
		return Job{}, fmt.Errorf("failed to create scraping job: %w", err)
	}
	return jobFromRow(row)
}

func (s *JobStore) Get(ctx context.Context, tenantID, id string) (Job, error) {
	row, err := s.q.GetScrapingJob(ctx, repository.GetScrapingJobParams{
		ID:       id,
		TenantID: tenantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, ErrJobNotFound
		}
		return Job{}, fmt.Errorf("failed to get scraping job: %w", err)
	}
	return jobFromRow(row)
}

func (s *JobStore) List(ctx context.Context, tenantID string, status models.JobStatus, limit, offset int32) ([]Job, error) {
	rows, err := s.q.ListScrapingJobs(ctx, repository.ListScrapingJobsParams{
		TenantID: tenantID,
		Status:   string(status),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scraping jobs: %w", err)
	}
	return jobsFromRows(rows)
}

func (s *JobStore) Count(ctx context.Context, tenantID string, status models.JobStatus) (int64, error) {
	count, err := s.q.CountScrapingJobs(ctx, repository.CountScrapingJobsParams{
		TenantID: tenantID,
		Status:   string(status),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count scraping jobs: %w", err)
	}
	return count, nil
}

func (s *JobStore) Cancel(ctx context.Context, tenantID, id string) error {
	affected, err := s.q.CancelScrapingJob(ctx, repository.CancelScrapingJobParams{
		ID:          id,
		TenantID:    tenantID,
		CompletedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to cancel scraping job: %w", err)
	}
	if affected == 0 {
		return common.ErrInvalidTransition
	}
	return nil
}

func (s *JobStore) ClaimPending(ctx context.Context, tenantID string, limit int32) ([]Job, error) {
	rows, err := s.q.ListPendingScrapingJobs(ctx, repository.ListPendingScrapingJobsParams{
		TenantID: tenantID,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending scraping jobs: %w", err)
	}
	return jobsFromRows(rows)
}

func (s *JobStore) MarkRunning(ctx context.Context, id string) error {
	affected, err := s.q.MarkScrapingJobRunning(ctx, repository.MarkScrapingJobRunningParams{
		ID:        id,
		StartedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark scraping job running: %w", err)
	}
	if affected == 0 {
		return common.ErrInvalidTransition
	}
	return nil
}

func (s *JobStore) MarkCompleted(ctx context.Context, id string, result map[string]any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal job result: %w", err)
	}
	affected, err := s.q.MarkScrapingJobCompleted(ctx, repository.MarkScrapingJobCompletedParams{
		ID:          id,
		Result:      raw,
		CompletedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark scraping job completed: %w", err)
	}
	if affected == 0 {
		return common.ErrInvalidTransition
	}
	return nil
}

func (s *JobStore) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	affected, err := s.q.MarkScrapingJobFailed(ctx, repository.MarkScrapingJobFailedParams{
		ID:          id,
		Error:       pgtype.Text{String: msg, Valid: msg != ""},
		CompletedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark scraping job failed: %w", err)
	}
	if affected == 0 {
		return common.ErrInvalidTransition
	}
	return nil
}

func (s *JobStore) RequeueStale(ctx context.Context, tenantID string, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	requeued, err := s.q.RequeueStaleScrapingJobs(ctx, repository.RequeueStaleScrapingJobsParams{
		TenantID:  tenantID,
		StartedAt: pgtype.Timestamptz{Time: cutoff, Valid: true},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale scraping jobs: %w", err)
	}
	return requeued, nil
}

func jobFromRow(row repository.ScrapingJob) (Job, error) {
	var result map[string]any
	if len(row.Result) > 0 {
		if err := json.Unmarshal(row.Result, &result); err != nil {
			return Job{}, fmt.Errorf("failed to unmarshal job %s result: %w", row.ID, err)
		}
	}

	job := Job{
		ID:        row.ID,
		TenantID:  row.TenantID,
		URL:       row.Url,
		Status:    models.JobStatus(row.Status),
		Result:    result,
		Error:     row.Error.String,
		CreatedAt: row.CreatedAt,
	}
	if row.StartedAt.Valid {
		t := row.StartedAt.Time
		job.StartedAt = &t
	}
	if row.CompletedAt.Valid {
		t := row.CompletedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

func jobsFromRows(rows []repository.ScrapingJob) ([]Job, error) {
	out := make([]Job, 0, len(rows))
	for _, row := range rows {
		job, err := jobFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}
