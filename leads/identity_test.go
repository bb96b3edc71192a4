package leads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Main Street 42", NormalizeText("  Main\n\tStreet   42  "))
	assert.Equal(t, "", NormalizeText("   \n\t "))
}

func TestComputeIdentityKey(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{
			name: "explicit id wins over name and address",
			data: map[string]any{"id": "abc-123", "name": "Store", "address": "Street 1"},
			want: "id:abc-123",
		},
		{
			name: "numeric id from json decoding",
			data: map[string]any{"id": float64(42)},
			want: "id:42",
		},
		{
			name: "name and address are lowercased and normalized",
			data: map[string]any{"name": "  Kaffee  Haus ", "address": "Haupt-Str.\n7"},
			want: "name_address:kaffee haus|haupt-str. 7",
		},
		{
			name: "name only still produces a key",
			data: map[string]any{"name": "Solo"},
			want: "name_address:solo|",
		},
		{
			name: "no id, name, or address yields empty key",
			data: map[string]any{"phone": "+49 30 1234"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeIdentityKey(tt.data))
		})
	}
}

func TestComputeIdentityKeyIsStable(t *testing.T) {
	data := map[string]any{"name": "Store A", "address": "Street 1"}
	first := ComputeIdentityKey(data)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ComputeIdentityKey(data))
	}
}

func TestComputeSourceURL(t *testing.T) {
	tests := []struct {
		name          string
		data          map[string]any
		defaultSource string
		want          string
	}{
		{
			name: "existing source field wins",
			data: map[string]any{"source": "https://example.com/store", "id": "1"},
			want: "https://example.com/store",
		},
		{
			name: "url field is treated as source",
			data: map[string]any{"url": "https://example.com/other"},
			want: "https://example.com/other",
		},
		{
			name:          "synthetic source from id",
			data:          map[string]any{"id": "store 42"},
			defaultSource: "rocketnow",
			want:          "rocketnow://store-42",
		},
		{
			name:          "synthetic source from name and address",
			data:          map[string]any{"name": "Kaffee Haus", "address": "Haupt Str 7"},
			defaultSource: "import",
			want:          "import://Kaffee-Haus-Haupt-Str-7",
		},
		{
			name: "missing address falls back to unknown and empty scheme to import",
			data: map[string]any{"name": "Solo"},
			want: "import://Solo-unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeSourceURL(tt.data, tt.defaultSource))
		})
	}
}

func TestMapRecord(t *testing.T) {
	data := map[string]any{"name": "Store A", "address": "Street 1"}
	rec := MapRecord(data, "feed")

	assert.Equal(t, "feed://Store-A-Street-1", rec.Source)
	assert.Equal(t, "name_address:store a|street 1", rec.IdentityKey)
	assert.Equal(t, data, rec.Data)
}
