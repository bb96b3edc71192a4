package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/common/models"
	"github.com/storefront-crm/lead-ingest-service/common/redis"
	"github.com/storefront-crm/lead-ingest-service/common/work"
	"github.com/storefront-crm/lead-ingest-service/leads"
)

const testTenant = "tenant-1"

/* In-memory job queue */

type fakeJobQueue struct {
	mu     sync.Mutex
	jobs   []Job
	nextID int
}

func newFakeJobQueue() *fakeJobQueue {
	return &fakeJobQueue{}
}

func (f *fakeJobQueue) addPending(urls ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, url := range urls {
		f.nextID++
		f.jobs = append(f.jobs, Job{
			ID:        fmt.Sprintf("job-%d", f.nextID),
			TenantID:  testTenant,
			URL:       url,
			Status:    models.JobStatusPending,
			CreatedAt: time.Now(),
		})
	}
}

func (f *fakeJobQueue) byID(id string) (Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.ID == id {
			return job, true
		}
	}
	return Job{}, false
}

func (f *fakeJobQueue) statusCounts() map[models.JobStatus]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[models.JobStatus]int{}
	for _, job := range f.jobs {
		counts[job.Status]++
	}
	return counts
}

func (f *fakeJobQueue) Create(_ context.Context, tenantID, url string) (Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	job := Job{
		ID:        fmt.Sprintf("job-%d", f.nextID),
		TenantID:  tenantID,
		URL:       url,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
	}
	f.jobs = append(f.jobs, job)
	return job, nil
}

func (f *fakeJobQueue) Get(_ context.Context, tenantID, id string) (Job, error) {
	if job, ok := f.byID(id); ok && job.TenantID == tenantID {
		return job, nil
	}
	return Job{}, ErrJobNotFound
}

func (f *fakeJobQueue) List(_ context.Context, tenantID string, status models.JobStatus, limit, offset int32) ([]Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Job
	for _, job := range f.jobs {
		if job.TenantID == tenantID && (status == "" || job.Status == status) {
			out = append(out, job)
		}
	}
	return out, nil
}

func (f *fakeJobQueue) Count(ctx context.Context, tenantID string, status models.JobStatus) (int64, error) {
	jobs, _ := f.List(ctx, tenantID, status, 0, 0)
	return int64(len(jobs)), nil
}

func (f *fakeJobQueue) Cancel(_ context.Context, tenantID, id string) error {
	return f.transition(id, models.JobStatusPending, models.JobStatusCancelled, nil, nil)
}

func (f *fakeJobQueue) ClaimPending(_ context.Context, tenantID string, limit int32) ([]Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Job
	for _, job := range f.jobs {
		if job.TenantID == tenantID && job.Status == models.JobStatusPending {
			out = append(out, job)
			if int32(len(out)) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeJobQueue) MarkRunning(_ context.Context, id string) error {
	return f.transition(id, models.JobStatusPending, models.JobStatusRunning, nil, nil)
}

func (f *fakeJobQueue) MarkCompleted(_ context.Context, id string, result map[string]any) error {
	return f.transition(id, models.JobStatusRunning, models.JobStatusCompleted, result, nil)
}

func (f *fakeJobQueue) MarkFailed(_ context.Context, id string, cause error) error {
	return f.transition(id, models.JobStatusRunning, models.JobStatusFailed, nil, cause)
}

func (f *fakeJobQueue) RequeueStale(_ context.Context, tenantID string, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var requeued int64
	for i := range f.jobs {
		job := &f.jobs[i]
		if job.TenantID == tenantID && job.Status == models.JobStatusRunning &&
			job.StartedAt != nil && job.StartedAt.Before(cutoff) {
			job.Status = models.JobStatusPending
			job.StartedAt = nil
			requeued++
		}
	}
	return requeued, nil
}

func (f *fakeJobQueue) transition(id string, from, to models.JobStatus, result map[string]any, cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.jobs {
		if f.jobs[i].ID != id {
			continue
		}
		if f.jobs[i].Status != from {
			return common.ErrInvalidTransition
		}
		f.jobs[i].Status = to
		now := time.Now()
		switch to {
		case models.JobStatusRunning:
			f.jobs[i].StartedAt = &now
		default:
			f.jobs[i].CompletedAt = &now
		}
		if result != nil {
			f.jobs[i].Result = result
		}
		if cause != nil {
			f.jobs[i].Error = cause.Error()
		}
		return nil
	}
	return ErrJobNotFound
}

/* Fake scraper tracking concurrency */

type fakeScraper struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	delay       time.Duration
	failURLs    map[string]error
}

func newFakeScraper() *fakeScraper {
	return &fakeScraper{failURLs: map[string]error{}}
}

func (s *fakeScraper) Scrape(_ context.Context, url string) (map[string]any, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.inFlight--
	err := s.failURLs[url]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return map[string]any{"name": "Store at " + url, "url": url}, nil
}

/* Minimal lead store for the processor */

type memLeadStore struct {
	mu    sync.Mutex
	leads map[string]leads.Lead
}

func newMemLeadStore() *memLeadStore {
	return &memLeadStore{leads: map[string]leads.Lead{}}
}

func (m *memLeadStore) ListBySources(_ context.Context, _ string, _ []string) ([]leads.Lead, error) {
	return nil, nil
}

func (m *memLeadStore) FindBySource(_ context.Context, tenantID, source string) (mo.Option[leads.Lead], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lead, ok := m.leads[source]; ok && lead.TenantID == tenantID {
		return mo.Some(lead), nil
	}
	return mo.None[leads.Lead](), nil
}

func (m *memLeadStore) FindByNameAddress(_ context.Context, _, _, _ string) (mo.Option[leads.Lead], error) {
	return mo.None[leads.Lead](), nil
}

func (m *memLeadStore) Create(_ context.Context, tenantID string, lead leads.NewLead) (leads.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := leads.Lead{
		ID:            fmt.Sprintf("lead-%d", len(m.leads)+1),
		TenantID:      tenantID,
		Source:        lead.Source,
		Data:          lead.Data,
		Status:        lead.Status,
		ScrapingJobID: lead.ScrapingJobID,
	}
	m.leads[lead.Source] = created
	return created, nil
}

func (m *memLeadStore) CreateBatch(ctx context.Context, tenantID string, rows []leads.NewLead) error {
	for _, row := range rows {
		if _, err := m.Create(ctx, tenantID, row); err != nil {
			return err
		}
	}
	return nil
}

func (m *memLeadStore) UpdateData(_ context.Context, _ string, _ map[string]any) error { return nil }

func (m *memLeadStore) UpdateSourceAndData(_ context.Context, _, _ string, _ map[string]any) error {
	return nil
}

func (m *memLeadStore) List(_ context.Context, _ string, _, _ int32) ([]leads.Lead, error) {
	return nil, nil
}

func (m *memLeadStore) Count(_ context.Context, tenantID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, lead := range m.leads {
		if lead.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func testProcessor(queue *fakeJobQueue, store *memLeadStore, sc *fakeScraper) *Processor {
	return NewProcessor(queue, store, sc, ProcessorConfig{
		BatchLimit:      200,
		Concurrency:     5,
		InterChunkDelay: time.Millisecond,
		StaleJobTimeout: 24 * time.Hour,
	})
}

func TestProcessPendingRequiresTenant(t *testing.T) {
	p := testProcessor(newFakeJobQueue(), newMemLeadStore(), newFakeScraper())
	_, err := p.ProcessPending(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrTenantRequired)
}

func TestProcessPendingEmptyQueue(t *testing.T) {
	p := testProcessor(newFakeJobQueue(), newMemLeadStore(), newFakeScraper())
	summary, err := p.ProcessPending(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)
}

func TestProcessPendingDrivesAllJobsToTerminalState(t *testing.T) {
	queue := newFakeJobQueue()
	for i := 0; i < 12; i++ {
		queue.addPending(fmt.Sprintf("https://example.com/store/%d", i))
	}
	store := newMemLeadStore()
	sc := newFakeScraper()
	p := testProcessor(queue, store, sc)

	summary, err := p.ProcessPending(context.Background(), testTenant)
	require.NoError(t, err)

	assert.Equal(t, 12, summary.Processed)
	assert.Equal(t, 12, summary.Success)
	assert.Zero(t, summary.Failed)

	counts := queue.statusCounts()
	assert.Zero(t, counts[models.JobStatusPending])
	assert.Zero(t, counts[models.JobStatusRunning])
	assert.Equal(t, 12, counts[models.JobStatusCompleted])

	leadCount, err := store.Count(context.Background(), testTenant)
	require.NoError(t, err)
	assert.EqualValues(t, 12, leadCount)
}

func TestProcessPendingBoundsConcurrency(t *testing.T) {
	queue := newFakeJobQueue()
	for i := 0; i < 20; i++ {
		queue.addPending(fmt.Sprintf("https://example.com/store/%d", i))
	}
	sc := newFakeScraper()
	sc.delay = 10 * time.Millisecond
	p := testProcessor(queue, newMemLeadStore(), sc)

	_, err := p.ProcessPending(context.Background(), testTenant)
	require.NoError(t, err)

	assert.LessOrEqual(t, sc.maxInFlight, 5)
	assert.Greater(t, sc.maxInFlight, 1)
}

func TestProcessPendingRecordsScrapeFailure(t *testing.T) {
	queue := newFakeJobQueue()
	queue.addPending("https://ok.example", "https://broken.example")
	store := newMemLeadStore()
	sc := newFakeScraper()
	sc.failURLs["https://broken.example"] = errors.New("connection refused")
	p := testProcessor(queue, store, sc)

	summary, err := p.ProcessPending(context.Background(), testTenant)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.Failed)

	failed, ok := queue.byID("job-2")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "connection refused")

	// No lead for the failed job.
	count, err := store.Count(context.Background(), testTenant)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestProcessPendingSkipsDuplicateSource(t *testing.T) {
	queue := newFakeJobQueue()
	queue.addPending("https://dup.example")
	store := newMemLeadStore()
	_, err := store.Create(context.Background(), testTenant, leads.NewLead{
		Source: "https://dup.example",
		Data:   map[string]any{"name": "Existing"},
	})
	require.NoError(t, err)

	p := testProcessor(queue, store, newFakeScraper())
	summary, err := p.ProcessPending(context.Background(), testTenant)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Success)

	job, ok := queue.byID("job-1")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.NotNil(t, job.Result)

	count, err := store.Count(context.Background(), testTenant)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestProcessPendingRequeuesStaleJobs(t *testing.T) {
	queue := newFakeJobQueue()
	stale := time.Now().Add(-48 * time.Hour)
	queue.jobs = append(queue.jobs, Job{
		ID:        "job-stale",
		TenantID:  testTenant,
		URL:       "https://stale.example",
		Status:    models.JobStatusRunning,
		StartedAt: &stale,
		CreatedAt: stale,
	})
	store := newMemLeadStore()
	p := testProcessor(queue, store, newFakeScraper())

	summary, err := p.ProcessPending(context.Background(), testTenant)
	require.NoError(t, err)

	assert.EqualValues(t, 1, summary.Requeued)
	assert.Equal(t, 1, summary.Success)

	job, ok := queue.byID("job-stale")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
}

func TestProcessPendingGuardRejectsConcurrentRun(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClientFromAddr(mr.Addr(), "", 0)
	require.NoError(t, err)
	defer client.Close()

	guard := work.NewRunGuard(client)
	require.NoError(t, guard.Acquire(context.Background(), testTenant))

	queue := newFakeJobQueue()
	queue.addPending("https://example.com/store/1")
	p := testProcessor(queue, newMemLeadStore(), newFakeScraper()).WithGuard(guard)

	_, err = p.ProcessPending(context.Background(), testTenant)
	assert.ErrorIs(t, err, common.ErrRunInProgress)

	// Released guard lets the run proceed and is released again afterwards.
	require.NoError(t, guard.Release(context.Background(), testTenant))
	summary, err := p.ProcessPending(context.Background(), testTenant)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Success)

	running, err := guard.IsRunning(context.Background(), testTenant)
	require.NoError(t, err)
	assert.False(t, running)
}
