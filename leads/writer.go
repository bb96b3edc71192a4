package leads

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ItemError records a single record that could not be written. Item errors
// never abort the rest of a batch.
type ItemError struct {
	Source string
	Err    error
}

// WriteResult summarises a plan application.
type WriteResult struct {
	Inserted int
	Updated  int
	Errors   []ItemError
}

// WriteOptions carries the metadata stamped onto created leads.
type WriteOptions struct {
	Notes         string
	ScrapingJobID string
}

// BatchWriter persists reconciliation plans. Inserts go through chunked batch
// statements with a per-record fallback; updates are applied one at a time
// because each needs its own existence re-check.
type BatchWriter struct {
	store     LeadService
	chunkSize int
}

func NewBatchWriter(store LeadService, chunkSize int) *BatchWriter {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	return &BatchWriter{store: store, chunkSize: chunkSize}
}

// WriteBatch inserts records in chunks. When a chunk insert fails, the chunk
// is retried record by record so one bad record only costs itself.
func (w *BatchWriter) WriteBatch(ctx context.Context, tenantID string, records []MappedRecord, opts WriteOptions) (int, []ItemError) {
	inserted := 0
	var itemErrors []ItemError

	for _, chunk := range lo.Chunk(records, w.chunkSize) {
		rows := lo.Map(chunk, func(rec MappedRecord, _ int) NewLead {
			return w.newLead(rec, opts)
		})
		err := w.store.CreateBatch(ctx, tenantID, rows)
		if err == nil {
			inserted += len(chunk)
			continue
		}

		log.Warn().
			Err(err).
			Str("tenantID", tenantID).
			Int("chunkSize", len(chunk)).
			Msg("Chunk insert failed, retrying records individually")

		for _, rec := range chunk {
			if _, err := w.store.Create(ctx, tenantID, w.newLead(rec, opts)); err != nil {
				itemErrors = append(itemErrors, ItemError{Source: rec.Source, Err: err})
				continue
			}
			inserted++
		}
	}

	return inserted, itemErrors
}

// ApplyPlan executes a reconciliation plan. Update records re-check the store
// at write time: the source lookup wins, then name+address, and a record that
// matches neither anymore is inserted instead of dropped.
func (w *BatchWriter) ApplyPlan(ctx context.Context, tenantID string, plan Plan, opts WriteOptions) WriteResult {
	var res WriteResult
	res.Inserted, res.Errors = w.WriteBatch(ctx, tenantID, plan.ToInsert, opts)

	updates := make([]MappedRecord, 0, len(plan.ToUpdateBySource)+len(plan.ToUpdateByIdentity))
	updates = append(updates, plan.ToUpdateBySource...)
	updates = append(updates, plan.ToUpdateByIdentity...)

	for _, rec := range updates {
		if err := w.applyUpdate(ctx, tenantID, rec, opts, &res); err != nil {
			res.Errors = append(res.Errors, ItemError{Source: rec.Source, Err: err})
		}
	}

	log.Info().
		Str("tenantID", tenantID).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("errors", len(res.Errors)).
		Msg("Reconciliation plan applied")

	return res
}

func (w *BatchWriter) applyUpdate(ctx context.Context, tenantID string, rec MappedRecord, opts WriteOptions, res *WriteResult) error {
	bySource, err := w.store.FindBySource(ctx, tenantID, rec.Source)
	if err != nil {
		return err
	}
	if lead, ok := bySource.Get(); ok {
		if err := w.store.UpdateData(ctx, lead.ID, rec.Data); err != nil {
			return err
		}
		res.Updated++
		return nil
	}

	name := stringField(rec.Data, "name")
	address := stringField(rec.Data, "address")
	if name != "" && address != "" {
		byIdentity, err := w.store.FindByNameAddress(ctx, tenantID, name, address)
		if err != nil {
			return err
		}
		if lead, ok := byIdentity.Get(); ok {
			if err := w.store.UpdateSourceAndData(ctx, lead.ID, rec.Source, rec.Data); err != nil {
				return err
			}
			res.Updated++
			return nil
		}
	}

	// The lead this record matched during planning is gone; fall through to
	// an insert so the record is not lost.
	if _, err := w.store.Create(ctx, tenantID, w.newLead(rec, opts)); err != nil {
		return err
	}
	res.Inserted++
	return nil
}

func (w *BatchWriter) newLead(rec MappedRecord, opts WriteOptions) NewLead {
	return NewLead{
		Source:        rec.Source,
		Data:          rec.Data,
		Notes:         strings.TrimSpace(opts.Notes),
		ScrapingJobID: opts.ScrapingJobID,
	}
}
