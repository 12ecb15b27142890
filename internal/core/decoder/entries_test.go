package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/ingestor/internal/core/domain"
)

func TestParseEntries_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"null", nil, 0},
		{"empty array", []any{}, 0},
		{"array", []any{entry(1), entry(2), entry(3)}, 3},
		{"wrapped array", map[string]any{"entries": []any{entry(1), entry(2)}}, 2},
		{"wrapped null", map[string]any{"entries": nil}, 0},
		{"single object", entry(9), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntries(mustValue(t, tt.value))
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseEntries_CamelCaseAliases(t *testing.T) {
	value := mustValue(t, map[string]any{
		"numHashes":                12,
		"hash":                     zeroHash,
		"numTransactions":          3,
		"startingTransactionIndex": 40,
	})

	got, err := ParseEntries(value)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EntrySummary{
		NumHashes:                12,
		NumTransactions:          3,
		StartingTransactionIndex: 40,
	}, got[0])
}

func TestParseEntries_RejectsScalars(t *testing.T) {
	for _, value := range []any{"entries", 42, true} {
		_, err := ParseEntries(mustValue(t, value))
		assert.ErrorIs(t, err, ErrInvalidEntries)
	}
}

func TestParseEntries_FirstFailureNamesIndex(t *testing.T) {
	bad := entry(1)
	bad["num_hashes"] = "many"

	_, err := ParseEntries(mustValue(t, []any{entry(1), bad, entry(2)}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")
	assert.Contains(t, err.Error(), "Deserialization error for EntrySummary at path `.num_hashes`")
}

func TestParseEntrySummary_HashErrors(t *testing.T) {
	t.Run("malformed", func(t *testing.T) {
		e := entry(1)
		e["hash"] = "0OIl"
		_, err := ParseEntrySummary(mustValue(t, e))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid entry hash")
	})

	t.Run("wrong length", func(t *testing.T) {
		e := entry(1)
		e["hash"] = "1111"
		_, err := ParseEntrySummary(mustValue(t, e))
		assert.ErrorIs(t, err, domain.ErrInvalidLength)
	})

	t.Run("missing", func(t *testing.T) {
		e := entry(1)
		delete(e, "hash")
		_, err := ParseEntrySummary(mustValue(t, e))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing field `hash`")
	})
}
