package decoder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTxIndex(t *testing.T) {
	tests := []struct {
		path   string
		want   int
		wantOK bool
	}{
		{".transactions[5].meta", 5, true},
		{".transactions[123]", 123, true},
		{".transactions[0].transaction.message", 0, true},
		{"block.transactions[7].meta.transactions[2]", 7, true},
		{".transactions[]", 0, false},
		{".transactions[x]", 0, false},
		{".rewards[3]", 0, false},
		{".", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := extractTxIndex(tt.path)
		assert.Equal(t, tt.wantOK, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

type sample struct {
	Name  string            `json:"name"`
	Items []sampleItem      `json:"items"`
	Tags  map[string]uint16 `json:"tags"`
}

type sampleItem struct {
	Count uint8 `json:"count"`
}

func TestFromValue_Success(t *testing.T) {
	var out sample
	err := FromValue(mustValue(t, map[string]any{
		"name":  "ok",
		"items": []any{map[string]any{"count": 1}},
	}), "sample", &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Name)
	assert.Equal(t, uint8(1), out.Items[0].Count)
}

func TestFromValue_Paths(t *testing.T) {
	tests := []struct {
		name  string
		value any
		path  string
	}{
		{"root type mismatch", "just a string", "."},
		{"field", map[string]any{"name": 12}, ".name"},
		{"nested index", map[string]any{"items": []any{
			map[string]any{"count": 1},
			map[string]any{"count": 300},
		}}, ".items[1].count"},
		{"first sorted map key", map[string]any{"tags": map[string]any{
			"b": -1,
			"a": "x",
		}}, ".tags.a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out sample
			err := FromValue(mustValue(t, tt.value), "sample", &out)
			require.Error(t, err)

			var pathErr *PathError
			require.True(t, errors.As(err, &pathErr))
			assert.Equal(t, tt.path, pathErr.Path)
			assert.False(t, pathErr.HasTxIndex)
			assert.NotContains(t, err.Error(), "transaction index")
		})
	}
}

func TestPathError_Format(t *testing.T) {
	err := &PathError{
		TypeName:   "EncodedConfirmedBlock",
		Path:       ".transactions[2].meta",
		TxIndex:    2,
		HasTxIndex: true,
		Err:        errors.New("boom"),
	}
	assert.Equal(t,
		"Deserialization error for EncodedConfirmedBlock at path `.transactions[2].meta` (transaction index: 2): boom",
		err.Error())
}
