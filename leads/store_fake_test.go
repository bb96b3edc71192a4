package leads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/storefront-crm/lead-ingest-service/common/models"
)

// fakeLeadStore is an in-memory LeadService for reconciler and writer tests.
type fakeLeadStore struct {
	mu     sync.Mutex
	leads  []Lead
	nextID int

	failBatch   bool
	failSources map[string]bool
}

func newFakeLeadStore(existing ...Lead) *fakeLeadStore {
	return &fakeLeadStore{leads: existing, failSources: map[string]bool{}}
}

func (f *fakeLeadStore) ListBySources(_ context.Context, tenantID string, sources []string) ([]Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wanted := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		wanted[s] = struct{}{}
	}
	var out []Lead
	for _, lead := range f.leads {
		if lead.TenantID != tenantID {
			continue
		}
		if _, ok := wanted[lead.Source]; ok {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeLeadStore) FindBySource(_ context.Context, tenantID, source string) (mo.Option[Lead], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, lead := range f.leads {
		if lead.TenantID == tenantID && lead.Source == source {
			return mo.Some(lead), nil
		}
	}
	return mo.None[Lead](), nil
}

func (f *fakeLeadStore) FindByNameAddress(_ context.Context, tenantID, name, address string) (mo.Option[Lead], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, lead := range f.leads {
		if lead.TenantID != tenantID {
			continue
		}
		if stringField(lead.Data, "name") == name && stringField(lead.Data, "address") == address {
			return mo.Some(lead), nil
		}
	}
	return mo.None[Lead](), nil
}

func (f *fakeLeadStore) Create(_ context.Context, tenantID string, lead NewLead) (Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSources[lead.Source] {
		return Lead{}, errors.New("simulated insert failure")
	}

	f.nextID++
	created := Lead{
		ID:            fmt.Sprintf("lead-%d", f.nextID),
		TenantID:      tenantID,
		ScrapingJobID: lead.ScrapingJobID,
		Source:        lead.Source,
		Data:          lead.Data,
		Status:        models.LeadStatusNew,
		Notes:         lead.Notes,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.leads = append(f.leads, created)
	return created, nil
}

func (f *fakeLeadStore) CreateBatch(ctx context.Context, tenantID string, rows []NewLead) error {
	if f.failBatch {
		return errors.New("simulated batch failure")
	}
	for _, row := range rows {
		if f.failSources[row.Source] {
			return errors.New("simulated batch failure")
		}
	}
	for _, row := range rows {
		if _, err := f.Create(ctx, tenantID, row); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeLeadStore) UpdateData(_ context.Context, id string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.leads {
		if f.leads[i].ID == id {
			f.leads[i].Data = data
			f.leads[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("lead %s not found", id)
}

func (f *fakeLeadStore) UpdateSourceAndData(_ context.Context, id, source string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.leads {
		if f.leads[i].ID == id {
			f.leads[i].Source = source
			f.leads[i].Data = data
			f.leads[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("lead %s not found", id)
}

func (f *fakeLeadStore) List(_ context.Context, tenantID string, limit, offset int32) ([]Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Lead
	for _, lead := range f.leads {
		if lead.TenantID == tenantID {
			out = append(out, lead)
		}
	}
	if int(offset) >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLeadStore) Count(_ context.Context, tenantID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, lead := range f.leads {
		if lead.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLeadStore) bySource(source string) (Lead, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, lead := range f.leads {
		if lead.Source == source {
			return lead, true
		}
	}
	return Lead{}, false
}
