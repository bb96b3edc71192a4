package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"

	"github.com/storefront-crm/lead-ingest-service/common/models"
	"github.com/storefront-crm/lead-ingest-service/repository"
)

// Lead is the stored lead as the domain layer sees it, with the payload
// decoded into a map.
type Lead struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenant_id"`
	ScrapingJobID string            `json:"scraping_job_id,omitempty"`
	Source        string            `json:"source"`
	Data          map[string]any    `json:"data"`
	Status        models.LeadStatus `json:"status"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewLead carries the fields needed to create a lead. ID and timestamps are
// assigned by the repository.
type NewLead struct {
	Source        string
	Data          map[string]any
	Status        models.LeadStatus
	Notes         string
	ScrapingJobID string
}

// LeadService is the storage interface the reconciler, writer, and job
// processor depend on.
type LeadService interface {
	ListBySources(ctx context.Context, tenantID string, sources []string) ([]Lead, error)
	FindBySource(ctx context.Context, tenantID, source string) (mo.Option[Lead], error)
	FindByNameAddress(ctx context.Context, tenantID, name, address string) (mo.Option[Lead], error)
	Create(ctx context.Context, tenantID string, lead NewLead) (Lead, error)
	CreateBatch(ctx context.Context, tenantID string, leads []NewLead) error
	UpdateData(ctx context.Context, id string, data map[string]any) error
	UpdateSourceAndData(ctx context.Context, id, source string, data map[string]any) error
	List(ctx context.Context, tenantID string, limit, offset int32) ([]Lead, error)
	Count(ctx context.Context, tenantID string) (int64, error)
}

// LeadRepository implements LeadService against Postgres.
type LeadRepository struct {
	q    *repository.Queries
	pool *pgxpool.Pool
}

func NewLeadRepository(q *repository.Queries, pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{q: q, pool: pool}
}

func (r *LeadRepository) ListBySources(ctx context.Context, tenantID string, sources []string) ([]Lead, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	rows, err := r.q.ListLeadsBySources(ctx, repository.ListLeadsBySourcesParams{
		TenantID: tenantID,
		Sources:  sources,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list leads by sources: %w", err)
	}
	return fromRows(rows)
}

func (r *LeadRepository) FindBySource(ctx context.Context, tenantID, source string) (mo.Option[Lead], error) {
	row, err := r.q.GetLeadBySource(ctx, repository.GetLeadBySourceParams{
		TenantID: tenantID,
		Source:   source,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[Lead](), nil
		}
		return mo.None[Lead](), fmt.Errorf("failed to get lead by source: %w", err)
	}
	lead, err := fromRow(row)
	if err != nil {
		return mo.None[Lead](), err
	}
	return mo.Some(lead), nil
}

func (r *LeadRepository) FindByNameAddress(ctx context.Context, tenantID, name, address string) (mo.Option[Lead], error) {
	row, err := r.q.GetLeadByNameAddress(ctx, repository.GetLeadByNameAddressParams{
		TenantID: tenantID,
		Name:     name,
		Address:  address,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[Lead](), nil
		}
		return mo.None[Lead](), fmt.Errorf("failed to get lead by name and address: %w", err)
	}
	lead, err := fromRow(row)
	if err != nil {
		return mo.None[Lead](), err
	}
	return mo.Some(lead), nil
}

func (r *LeadRepository) Create(ctx context.Context, tenantID string, lead NewLead) (Lead, error) {
	params, err := createParams(tenantID, lead, time.Now())
	if err != nil {
		return Lead{}, err
	}
	row, err := r.q.CreateLead(ctx, repository.CreateLeadParams(params))
	if err != nil {
		return Lead{}, fmt.Errorf("failed to create lead: %w", err)
	}
	return fromRow(row)
}

// CreateBatch inserts all leads inside a single transaction so a mid-batch
// failure never leaves a partial chunk behind. Callers fall back to
// one-at-a-time Create on error.
func (r *LeadRepository) CreateBatch(ctx context.Context, tenantID string, leads []NewLead) error {
	if len(leads) == 0 {
		return nil
	}

	now := time.Now()
	params := make([]repository.CreateLeadsParams, 0, len(leads))
	for _, lead := range leads {
		p, err := createParams(tenantID, lead, now)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin batch insert: %w", err)
	}
	defer tx.Rollback(ctx)

	var batchErr error
	r.q.WithTx(tx).CreateLeads(ctx, params).Exec(func(i int, err error) {
		if err != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to insert lead %d of %d: %w", i+1, len(params), err)
		}
	})
	if batchErr != nil {
		return batchErr
	}
	return tx.Commit(ctx)
}

func (r *LeadRepository) UpdateData(ctx context.Context, id string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal lead data: %w", err)
	}
	if err := r.q.UpdateLeadData(ctx, repository.UpdateLeadDataParams{
		ID:        id,
		Data:      raw,
		UpdatedAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to update lead data: %w", err)
	}
	return nil
}

func (r *LeadRepository) UpdateSourceAndData(ctx context.Context, id, source string, data map[string]any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal lead data: %w", err)
	}
	if err := r.q.UpdateLeadSourceData(ctx, repository.UpdateLeadSourceDataParams{
		ID:        id,
		Source:    source,
		Data:      raw,
		UpdatedAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to update lead source and data: %w", err)
	}
	return nil
}

func (r *LeadRepository) List(ctx context.Context, tenantID string, limit, offset int32) ([]Lead, error) {
	rows, err := r.q.ListLeads(ctx, repository.ListLeadsParams{
		TenantID: tenantID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return fromRows(rows)
}

func (r *LeadRepository) Count(ctx context.Context, tenantID string) (int64, error) {
	count, err := r.q.CountLeads(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

func createParams(tenantID string, lead NewLead, now time.Time) (repository.CreateLeadsParams, error) {
	raw, err := json.Marshal(lead.Data)
	if err != nil {
		return repository.CreateLeadsParams{}, fmt.Errorf("failed to marshal lead data: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return repository.CreateLeadsParams{}, fmt.Errorf("failed to generate lead ID: %w", err)
	}

	status := lead.Status
	if status == "" {
		status = models.LeadStatusNew
	}

	return repository.CreateLeadsParams{
		ID:            id.String(),
		TenantID:      tenantID,
		ScrapingJobID: pgtype.Text{String: lead.ScrapingJobID, Valid: lead.ScrapingJobID != ""},
		Source:        lead.Source,
		Data:          raw,
		Status:        string(status),
		Notes:         pgtype.Text{String: lead.Notes, Valid: lead.Notes != ""},
		CreatedAt:     now,
	}, nil
}

func fromRow(row repository.Lead) (Lead, error) {
	var data map[string]any
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return Lead{}, fmt.Errorf("failed to unmarshal lead %s data: %w", row.ID, err)
		}
	}
	return Lead{
		ID:            row.ID,
		TenantID:      row.TenantID,
		ScrapingJobID: row.ScrapingJobID.String,
		Source:        row.Source,
		Data:          data,
		Status:        models.LeadStatus(row.Status),
		Notes:         row.Notes.String,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func fromRows(rows []repository.Lead) ([]Lead, error) {
	out := make([]Lead, 0, len(rows))
	for _, row := range rows {
		lead, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, nil
}
