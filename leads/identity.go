package leads

import (
	"fmt"
	"strconv"
	"strings"
)

// MappedRecord is the transient, normalized form of a scraped or imported
// record. It is produced once, classified by the reconciler, and discarded.
type MappedRecord struct {
	Source      string
	IdentityKey string
	Data        map[string]any
}

const (
	idKeyPrefix          = "id:"
	nameAddressKeyPrefix = "name_address:"
)

// NormalizeText collapses all whitespace runs (including newlines and tabs)
// into single spaces and trims the result.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// stringField returns the first non-empty string value of the named fields.
// Numeric values are rendered so external IDs survive JSON number decoding.
func stringField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := data[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case int, int32, int64:
			return fmt.Sprintf("%d", s)
		}
	}
	return ""
}

// ComputeIdentityKey derives the deduplication key for a record. An explicit
// external identifier wins; otherwise the key is built from the normalized
// name and address. Records with neither name nor address yield an empty
// key and are excluded from identity matching, so absence never acts as a
// wildcard match.
func ComputeIdentityKey(data map[string]any) string {
	if id := stringField(data, "id", "store_id"); id != "" {
		return idKeyPrefix + id
	}

	name := strings.ToLower(NormalizeText(stringField(data, "name")))
	address := strings.ToLower(NormalizeText(stringField(data, "address")))
	if name == "" && address == "" {
		return ""
	}
	return nameAddressKeyPrefix + name + "|" + address
}

// identityKeyOf builds the name+address key for an already stored lead. It
// returns an empty string unless both fields are present, mirroring the
// matching rule on the incoming side.
func identityKeyOf(data map[string]any) string {
	name := strings.ToLower(NormalizeText(stringField(data, "name")))
	address := strings.ToLower(NormalizeText(stringField(data, "address")))
	if name == "" || address == "" {
		return ""
	}
	return nameAddressKeyPrefix + name + "|" + address
}

// ComputeSourceURL returns the canonical source for a record. Records that
// carry their own URL keep it; everything else gets a deterministic
// synthetic key under the given scheme, so recomputation across runs is
// idempotent.
func ComputeSourceURL(data map[string]any, defaultSource string) string {
	if u := stringField(data, "source", "url"); u != "" {
		return u
	}

	id := stringField(data, "id", "store_id")
	if id == "" {
		address := stringField(data, "address")
		if address == "" {
			address = "unknown"
		}
		id = strings.Join(strings.Fields(stringField(data, "name")+"-"+address), "-")
	}

	scheme := defaultSource
	if scheme == "" {
		scheme = "import"
	}
	return scheme + "://" + strings.ReplaceAll(id, " ", "-")
}

// MapRecord produces the MappedRecord for a raw payload.
func MapRecord(data map[string]any, defaultSource string) MappedRecord {
	return MappedRecord{
		Source:      ComputeSourceURL(data, defaultSource),
		IdentityKey: ComputeIdentityKey(data),
		Data:        data,
	}
}
