package jobs

import (
	"context"
	"time"

	"github.com/storefront-crm/lead-ingest-service/common/models"
)

// Job is a scraping job as the domain layer sees it.
type Job struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	URL         string           `json:"url"`
	Status      models.JobStatus `json:"status"`
	Result      map[string]any   `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// JobService is the job queue interface. All status transitions are enforced
// in storage: a transition attempt from the wrong state returns
// common.ErrInvalidTransition instead of silently overwriting.
type JobService interface {
	Create(ctx context.Context, tenantID, url string) (Job, error)
	Get(ctx context.Context, tenantID, id string) (Job, error)
	List(ctx context.Context, tenantID string, status models.JobStatus, limit, offset int32) ([]Job, error)
	Count(ctx context.Context, tenantID string, status models.JobStatus) (int64, error)
	Cancel(ctx context.Context, tenantID, id string) error

	// ClaimPending returns up to limit pending jobs in FIFO order. It does
	// not change their status; MarkRunning claims each job individually.
	ClaimPending(ctx context.Context, tenantID string, limit int32) ([]Job, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, result map[string]any) error
	MarkFailed(ctx context.Context, id string, cause error) error

	// RequeueStale flips running jobs whose run started before the cutoff
	// back to pending, recovering work orphaned by a crashed run.
	RequeueStale(ctx context.Context, tenantID string, olderThan time.Duration) (int64, error)
}

// Summary is the outcome of one processing run.
type Summary struct {
	Processed int           `json:"processed"`
	Success   int           `json:"success"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Requeued  int64         `json:"requeued"`
	Elapsed   time.Duration `json:"elapsed"`
}

// EventPublisher receives job lifecycle notifications. Publishing is best
// effort; implementations must not block processing on broker trouble.
type EventPublisher interface {
	JobCompleted(ctx context.Context, job Job)
	JobFailed(ctx context.Context, job Job, cause error)
	RunCompleted(ctx context.Context, tenantID string, summary Summary)
}
