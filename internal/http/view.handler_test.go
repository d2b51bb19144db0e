package http

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateViewFilters(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
		want   string
	}{
		{name: "absent defaults to empty object", raw: "", wantOK: true, want: "{}"},
		{name: "legacy format", raw: `{"Name": {"op": "contains", "value": "o"}}`, wantOK: true},
		{name: "advanced format", raw: `{"logicalType": "OR", "conditions": []}`, wantOK: true},
		{name: "malformed payload", raw: `[1, 2]`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := validateViewFilters(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantOK, ok)
			if tt.want != "" {
				assert.Equal(t, tt.want, string(got))
			}
		})
	}
}

func TestValidateViewSort(t *testing.T) {
	got, ok := validateViewSort(nil)
	require.True(t, ok)
	assert.Equal(t, "{}", string(got))

	_, ok = validateViewSort(json.RawMessage(`{"Name": {"direction": "sideways"}}`))
	assert.False(t, ok)

	_, ok = validateViewSort(json.RawMessage(`{"Name": {"direction": "desc", "order": 0}}`))
	assert.True(t, ok)
}

func TestValidateViewHiddenColumns(t *testing.T) {
	got, ok := validateViewHiddenColumns(nil)
	require.True(t, ok)
	assert.Equal(t, "[]", string(got))

	_, ok = validateViewHiddenColumns(json.RawMessage(`["not-a-uuid"]`))
	assert.False(t, ok)

	_, ok = validateViewHiddenColumns(json.RawMessage(`["5f3c57a2-9f4e-4f55-9f70-1d8f2f1b2a3c"]`))
	assert.True(t, ok)
}
