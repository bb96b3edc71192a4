package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/xuri/excelize/v2"

	"github.com/storefront-crm/lead-ingest-service/common"
	"github.com/storefront-crm/lead-ingest-service/leads"
)

// rowSchema rejects records that carry nothing to identify or reach the
// store by. Everything else is free-form and lands in the lead data as-is.
const rowSchemaJSON = `{
	"type": "object",
	"anyOf": [
		{"required": ["id"]},
		{"required": ["store_id"]},
		{"required": ["name"]},
		{"required": ["source"]},
		{"required": ["url"]}
	]
}`

var rowSchema = jsonschema.MustCompileString("lead-row.schema.json", rowSchemaJSON)

// Result summarises a file import.
type Result struct {
	Rows     int               `json:"rows"`
	Inserted int               `json:"inserted"`
	Updated  int               `json:"updated"`
	Skipped  int               `json:"skipped"`
	Errors   []leads.ItemError `json:"-"`
}

// Importer loads store records from JSON, CSV, or XLSX files and feeds them
// through reconciliation.
type Importer struct {
	reconciler    *leads.Reconciler
	writer        *leads.BatchWriter
	defaultSource string
}

func New(reconciler *leads.Reconciler, writer *leads.BatchWriter, defaultSource string) *Importer {
	if defaultSource == "" {
		defaultSource = "import"
	}
	return &Importer{
		reconciler:    reconciler,
		writer:        writer,
		defaultSource: defaultSource,
	}
}

// ImportFile parses the file, reconciles its records against the tenant's
// leads, and applies the plan. A structurally broken file is a fatal error;
// individual bad rows are skipped and counted.
func (i *Importer) ImportFile(ctx context.Context, tenantID, path, format string) (Result, error) {
	if tenantID == "" {
		return Result{}, common.ErrTenantRequired
	}
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	rows, err := parseFile(path, format)
	if err != nil {
		return Result{}, err
	}

	var res Result
	records := make([]leads.MappedRecord, 0, len(rows))
	for idx, row := range rows {
		if err := rowSchema.Validate(row); err != nil {
			res.Skipped++
			log.Warn().
				Err(err).
				Int("row", idx+1).
				Str("file", filepath.Base(path)).
				Msg("Skipping unidentifiable row")
			continue
		}
		records = append(records, leads.MapRecord(row, i.defaultSource))
	}
	res.Rows = len(rows)

	plan, err := i.reconciler.Reconcile(ctx, tenantID, records)
	if err != nil {
		return res, err
	}

	applied := i.writer.ApplyPlan(ctx, tenantID, plan, leads.WriteOptions{
		Notes: "Imported from " + filepath.Base(path),
	})
	res.Inserted = applied.Inserted
	res.Updated = applied.Updated
	res.Errors = applied.Errors

	log.Info().
		Str("tenantID", tenantID).
		Str("file", filepath.Base(path)).
		Int("rows", res.Rows).
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("Import finished")

	return res, nil
}

func parseFile(path, format string) ([]map[string]any, error) {
	switch format {
	case "json":
		return parseJSON(path)
	case "csv":
		return parseCSV(path)
	case "xlsx":
		return parseXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, format)
	}
}

// parseJSON accepts a bare array of records or an object wrapping one under
// a "stores" or "data" key.
func parseJSON(path string) ([]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var items []any
	switch v := decoded.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"stores", "data"} {
			if arr, ok := v[key].([]any); ok {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, fmt.Errorf("parsing %s: no stores or data array found", path)
		}
	default:
		return nil, fmt.Errorf("parsing %s: expected an array or object at the top level", path)
	}

	return lo.FilterMap(items, func(item any, _ int) (map[string]any, bool) {
		row, ok := item.(map[string]any)
		return row, ok
	}), nil
}

func parseCSV(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parsing %s: file is empty", path)
	}

	return tabularRows(rows[0], rows[1:]), nil
}

func parseXLSX(path string) ([]map[string]any, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parsing %s: sheet %q is empty", path, sheet)
	}

	return tabularRows(rows[0], rows[1:]), nil
}

// tabularRows zips a header row with data rows. Cells beyond the header and
// fully empty rows are dropped.
func tabularRows(header []string, rows [][]string) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, cells := range rows {
		row := make(map[string]any, len(header))
		empty := true
		for i, name := range header {
			name = strings.TrimSpace(name)
			if name == "" || i >= len(cells) {
				continue
			}
			value := strings.TrimSpace(cells[i])
			if value == "" {
				continue
			}
			row[name] = value
			empty = false
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}
