package leads

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Plan is the outcome of reconciling a batch of incoming records against the
// stored leads of a tenant. Every input record lands in exactly one bucket.
type Plan struct {
	ToInsert           []MappedRecord
	ToUpdateBySource   []MappedRecord
	ToUpdateByIdentity []MappedRecord
}

// Total returns the number of records in the plan.
func (p Plan) Total() int {
	return len(p.ToInsert) + len(p.ToUpdateBySource) + len(p.ToUpdateByIdentity)
}

// SourceLister is the slice of lead storage the reconciler needs.
type SourceLister interface {
	ListBySources(ctx context.Context, tenantID string, sources []string) ([]Lead, error)
}

// Reconciler classifies incoming records as inserts or updates. It fetches
// the candidate leads for a whole batch in one query instead of probing the
// store per record.
type Reconciler struct {
	store SourceLister
}

func NewReconciler(store SourceLister) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile splits records into the three plan buckets. A source match takes
// precedence over an identity match; records matching neither are inserts.
func (r *Reconciler) Reconcile(ctx context.Context, tenantID string, records []MappedRecord) (Plan, error) {
	if len(records) == 0 {
		return Plan{}, nil
	}

	sources := lo.Uniq(lo.Map(records, func(rec MappedRecord, _ int) string {
		return rec.Source
	}))
	existing, err := r.store.ListBySources(ctx, tenantID, sources)
	if err != nil {
		return Plan{}, fmt.Errorf("fetching existing leads: %w", err)
	}

	sourceSet := make(map[string]struct{}, len(existing))
	identitySet := make(map[string]struct{}, len(existing))
	for _, lead := range existing {
		sourceSet[lead.Source] = struct{}{}
		if key := identityKeyOf(lead.Data); key != "" {
			identitySet[key] = struct{}{}
		}
	}

	var plan Plan
	for _, rec := range records {
		if _, ok := sourceSet[rec.Source]; ok {
			plan.ToUpdateBySource = append(plan.ToUpdateBySource, rec)
			continue
		}
		if rec.IdentityKey != "" {
			if _, ok := identitySet[rec.IdentityKey]; ok {
				plan.ToUpdateByIdentity = append(plan.ToUpdateByIdentity, rec)
				continue
			}
		}
		plan.ToInsert = append(plan.ToInsert, rec)
	}

	log.Debug().
		Str("tenantID", tenantID).
		Int("records", len(records)).
		Int("toInsert", len(plan.ToInsert)).
		Int("toUpdateBySource", len(plan.ToUpdateBySource)).
		Int("toUpdateByIdentity", len(plan.ToUpdateByIdentity)).
		Msg("Reconciliation plan built")

	return plan, nil
}
