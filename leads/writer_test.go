package leads

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mappedRecords(n int) []MappedRecord {
	out := make([]MappedRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, MapRecord(map[string]any{
			"name":    fmt.Sprintf("Store %d", i),
			"address": fmt.Sprintf("Street %d", i),
		}, "import"))
	}
	return out
}

func TestWriteBatchChunksInserts(t *testing.T) {
	store := newFakeLeadStore()
	w := NewBatchWriter(store, 50)

	inserted, errs := w.WriteBatch(context.Background(), testTenant, mappedRecords(120), WriteOptions{})
	require.Empty(t, errs)
	assert.Equal(t, 120, inserted)

	count, err := store.Count(context.Background(), testTenant)
	require.NoError(t, err)
	assert.EqualValues(t, 120, count)
}

func TestWriteBatchFallsBackPerRecord(t *testing.T) {
	store := newFakeLeadStore()
	records := mappedRecords(10)
	// Poison two records so the chunk insert fails and the fallback runs.
	store.failSources[records[3].Source] = true
	store.failSources[records[7].Source] = true

	w := NewBatchWriter(store, 50)
	inserted, errs := w.WriteBatch(context.Background(), testTenant, records, WriteOptions{})

	assert.Equal(t, 8, inserted)
	require.Len(t, errs, 2)
	assert.Equal(t, len(records), inserted+len(errs))
	assert.Equal(t, records[3].Source, errs[0].Source)
	assert.Error(t, errs[0].Err)
}

func TestApplyPlanUpdatesBySource(t *testing.T) {
	store := newFakeLeadStore(
		storedLead("l1", "https://a.example", map[string]any{"name": "Old Name"}),
	)
	w := NewBatchWriter(store, 50)

	rec := MapRecord(map[string]any{"source": "https://a.example", "name": "New Name"}, "import")
	res := w.ApplyPlan(context.Background(), testTenant, Plan{ToUpdateBySource: []MappedRecord{rec}}, WriteOptions{})

	require.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Updated)
	lead, ok := store.bySource("https://a.example")
	require.True(t, ok)
	assert.Equal(t, "New Name", lead.Data["name"])
}

func TestApplyPlanIdentityUpdateRewritesSource(t *testing.T) {
	store := newFakeLeadStore(
		storedLead("l1", "import://Same-Same-St", map[string]any{"name": "Same", "address": "Same St"}),
	)
	w := NewBatchWriter(store, 50)

	rec := MapRecord(map[string]any{
		"source":  "https://new.example/profile",
		"name":    "Same",
		"address": "Same St",
	}, "import")
	res := w.ApplyPlan(context.Background(), testTenant, Plan{ToUpdateByIdentity: []MappedRecord{rec}}, WriteOptions{})

	require.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Updated)

	// The lead now carries the richer source URL.
	lead, ok := store.bySource("https://new.example/profile")
	require.True(t, ok)
	assert.Equal(t, "l1", lead.ID)
	_, stillOld := store.bySource("import://Same-Same-St")
	assert.False(t, stillOld)
}

func TestApplyPlanFallsBackToInsertWhenMatchVanished(t *testing.T) {
	// The plan says update, but the matched lead no longer exists at write
	// time. The record must be inserted, not dropped.
	store := newFakeLeadStore()
	w := NewBatchWriter(store, 50)

	rec := MapRecord(map[string]any{"source": "https://gone.example", "name": "Ghost"}, "import")
	res := w.ApplyPlan(context.Background(), testTenant, Plan{ToUpdateBySource: []MappedRecord{rec}}, WriteOptions{})

	require.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	_, ok := store.bySource("https://gone.example")
	assert.True(t, ok)
}

func TestApplyPlanStampsNotes(t *testing.T) {
	store := newFakeLeadStore()
	w := NewBatchWriter(store, 50)

	rec := MapRecord(map[string]any{"name": "Store A", "address": "Street 1"}, "import")
	res := w.ApplyPlan(context.Background(), testTenant, Plan{ToInsert: []MappedRecord{rec}}, WriteOptions{
		Notes: "Imported from stores.json",
	})

	require.Empty(t, res.Errors)
	lead, ok := store.bySource(rec.Source)
	require.True(t, ok)
	assert.Equal(t, "Imported from stores.json", lead.Notes)
}
