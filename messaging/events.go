package messaging

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storefront-crm/lead-ingest-service/jobs"
)

// JobEventPayload is published on job completion and failure.
type JobEventPayload struct {
	JobID      string    `json:"job_id"`
	TenantID   string    `json:"tenant_id"`
	URL        string    `json:"url"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RunSummaryPayload is published after every processing run.
type RunSummaryPayload struct {
	TenantID  string `json:"tenant_id"`
	Processed int    `json:"processed"`
	Success   int    `json:"success"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Requeued  int64  `json:"requeued"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// ProcessRequestPayload triggers a processing run for a tenant when received
// on SubjectProcessRequest.
type ProcessRequestPayload struct {
	TenantID string `json:"tenant_id"`
}

// JobEvents publishes job lifecycle events through the broker. Publishing is
// best effort: failures are logged and never surface to the processor.
type JobEvents struct {
	broker *Broker
}

func NewJobEvents(broker *Broker) *JobEvents {
	return &JobEvents{broker: broker}
}

func (e *JobEvents) JobCompleted(_ context.Context, job jobs.Job) {
	e.publish(SubjectJobCompleted, JobEventPayload{
		JobID:      job.ID,
		TenantID:   job.TenantID,
		URL:        job.URL,
		Status:     "completed",
		OccurredAt: time.Now(),
	})
}

func (e *JobEvents) JobFailed(_ context.Context, job jobs.Job, cause error) {
	payload := JobEventPayload{
		JobID:      job.ID,
		TenantID:   job.TenantID,
		URL:        job.URL,
		Status:     "failed",
		OccurredAt: time.Now(),
	}
	if cause != nil {
		payload.Error = cause.Error()
	}
	e.publish(SubjectJobFailed, payload)
}

func (e *JobEvents) RunCompleted(_ context.Context, tenantID string, summary jobs.Summary) {
	e.publish(SubjectRunSummary, RunSummaryPayload{
		TenantID:  tenantID,
		Processed: summary.Processed,
		Success:   summary.Success,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		Requeued:  summary.Requeued,
		ElapsedMS: summary.Elapsed.Milliseconds(),
	})
}

func (e *JobEvents) publish(subject string, payload any) {
	if err := e.broker.PublishJSON(subject, payload); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("Failed to publish event")
	}
}
