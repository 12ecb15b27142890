package decoder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// zeroHash is the base58 form of 32 zero bytes.
const zeroHash = "11111111111111111111111111111111"

func blockFields() map[string]any {
	return map[string]any{
		"previousBlockhash": zeroHash,
		"blockhash":         zeroHash,
		"parentSlot":        99,
		"transactions":      []any{},
		"rewards":           []any{},
		"blockTime":         1700000000,
		"blockHeight":       90,
	}
}

func entry(numHashes int) map[string]any {
	return map[string]any{
		"num_hashes":                 numHashes,
		"hash":                       zeroHash,
		"num_transactions":           0,
		"starting_transaction_index": 0,
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// mustValue round-trips v through parseJSON so tests see the same generic
// shapes the decoder does.
func mustValue(t *testing.T, v any) any {
	t.Helper()
	value, err := parseJSON(mustJSON(t, v))
	require.NoError(t, err)
	return value
}
