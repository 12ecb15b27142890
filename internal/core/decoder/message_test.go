package decoder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/ingestor/internal/core/domain"
)

func TestDecode_TopLevelBlock(t *testing.T) {
	msg := blockFields()
	msg["blockID"] = 100
	msg["entries"] = []any{entry(1), entry(2)}

	payload, err := NewJSONDecoder().Decode(mustJSON(t, msg))
	require.NoError(t, err)

	got, ok := payload.(domain.BlockWithEntries)
	require.True(t, ok, "expected BlockWithEntries, got %T", payload)
	assert.Equal(t, uint64(100), got.BlockID)
	assert.Equal(t, uint64(99), got.Block.ParentSlot)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, uint64(2), got.Entries[1].NumHashes)
}

func TestDecode_BlockIDNumberAndStringAgree(t *testing.T) {
	dec := NewJSONDecoder()

	numeric := blockFields()
	numeric["blockID"] = 100
	text := blockFields()
	text["blockID"] = "100"

	a, err := dec.Decode(mustJSON(t, numeric))
	require.NoError(t, err)
	b, err := dec.Decode(mustJSON(t, text))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDecode_AbsentEntriesIsEmpty(t *testing.T) {
	msg := blockFields()
	msg["blockID"] = 7

	payload, err := NewJSONDecoder().Decode(mustJSON(t, msg))
	require.NoError(t, err)

	got := payload.(domain.BlockWithEntries)
	assert.NotNil(t, got.Entries)
	assert.Empty(t, got.Entries)
}

func TestDecode_NestedBlockInResult(t *testing.T) {
	nested := blockFields()
	nested["blockID"] = "12"
	msg := map[string]any{
		"result": map[string]any{
			"block":   nested,
			"entries": map[string]any{"entries": []any{entry(3)}},
		},
	}

	payload, err := NewJSONDecoder().Decode(mustJSON(t, msg))
	require.NoError(t, err)

	got := payload.(domain.BlockWithEntries)
	assert.Equal(t, uint64(12), got.BlockID)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, uint64(3), got.Entries[0].NumHashes)
}

func TestDecode_TopLevelWinsOverNested(t *testing.T) {
	nested := blockFields()
	nested["blockID"] = 2
	msg := blockFields()
	msg["blockID"] = 1
	msg["block"] = nested

	payload, err := NewJSONDecoder().Decode(mustJSON(t, msg))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), payload.(domain.BlockWithEntries).BlockID)
}

func TestDecode_NestedMissingBlockID(t *testing.T) {
	msg := map[string]any{"block": blockFields()}

	_, err := NewJSONDecoder().Decode(mustJSON(t, msg))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingNestedBlockID)
}

func TestDecode_HDFSPathObject(t *testing.T) {
	payload, err := NewJSONDecoder().Decode([]byte(`{"hdfs_path":"hdfs://nn:9000/blocks/1.ndjson"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.FilePath{Path: "hdfs://nn:9000/blocks/1.ndjson"}, payload)
}

func TestDecode_PlainTextFilePaths(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"gzip suffix", "  /data/blocks/0001.json.gz\n", "/data/blocks/0001.json.gz"},
		{"hdfs scheme", "hdfs://namenode/blocks/0001", "hdfs://namenode/blocks/0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := NewJSONDecoder().Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, domain.FilePath{Path: tt.want}, payload)
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"not json nor path", []byte("hello world"), ErrNotFilePath},
		{"unknown object", []byte(`{"foo":1}`), ErrUnrecognizedPayload},
		{"json array", []byte(`[1,2,3]`), ErrUnrecognizedPayload},
		{"invalid utf8", []byte{0xff, 0xfe, '{', '}'}, ErrInvalidUTF8},
		{"negative blockID alone", []byte(`{"blockID":-1}`), ErrUnrecognizedPayload},
		{"nested block not an object", []byte(`{"block":5}`), ErrMissingNestedBlockID},
		{"nested blockID not numeric", []byte(`{"block":{"blockID":"abc"}}`), ErrMissingNestedBlockID},
		{"nested blockID null", []byte(`{"block":{"blockID":null}}`), ErrMissingNestedBlockID},
		{"bad entries", []byte(`{"blockID":1,"entries":42}`), ErrInvalidEntries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONDecoder().Decode(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_NotFilePathIncludesTrimmedText(t *testing.T) {
	_, err := NewJSONDecoder().Decode([]byte("  nope  "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ": nope")
}

func TestDecode_ReportsTransactionPath(t *testing.T) {
	txs := make([]any, 6)
	for i := range txs {
		txs[i] = map[string]any{
			"transaction": []any{"AQ==", "base64"},
			"meta":        map[string]any{"fee": 5000},
		}
	}
	txs[5] = map[string]any{
		"transaction": []any{"AQ==", "base64"},
		"meta":        map[string]any{"fee": "not a number"},
	}
	msg := blockFields()
	msg["blockID"] = 5
	msg["transactions"] = txs

	_, err := NewJSONDecoder().Decode(mustJSON(t, msg))
	require.Error(t, err)

	var pathErr *PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, "EncodedConfirmedBlock", pathErr.TypeName)
	assert.Equal(t, ".transactions[5].meta.fee", pathErr.Path)
	assert.True(t, pathErr.HasTxIndex)
	assert.Equal(t, 5, pathErr.TxIndex)
	assert.Contains(t, err.Error(), "(transaction index: 5)")
	assert.Contains(t, err.Error(), "at path `.transactions[5].meta.fee`")
}

func TestDecode_UnreadableBlockIDFallsThrough(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"text id", `{"blockID":"abc","hdfs_path":"hdfs://x/y.gz"}`},
		{"null id", `{"blockID":null,"hdfs_path":"hdfs://x/y.gz"}`},
		{"negative id", `{"blockID":-1,"hdfs_path":"hdfs://x/y.gz"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := NewJSONDecoder().Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, domain.FilePath{Path: "hdfs://x/y.gz"}, payload)
		})
	}
}

func TestDecode_UnreadableTopLevelIDUsesNestedBlock(t *testing.T) {
	nested := blockFields()
	nested["blockID"] = 8
	msg := map[string]any{"blockID": "abc", "block": nested}

	payload, err := NewJSONDecoder().Decode(mustJSON(t, msg))
	require.NoError(t, err)
	assert.Equal(t, uint64(8), payload.(domain.BlockWithEntries).BlockID)
}

func TestDecode_MissingNestedBlockIDMessage(t *testing.T) {
	_, err := NewJSONDecoder().Decode([]byte(`{"block":5}`))
	require.Error(t, err)
	assert.Equal(t, "missing block.blockID in payload", err.Error())
}

func TestDecode_ResultWrappedTopLevelMatchesFlat(t *testing.T) {
	flat := blockFields()
	flat["blockID"] = 42
	flat["entries"] = []any{entry(4)}
	wrapped := map[string]any{"jsonrpc": "2.0", "result": flat, "id": 1}

	dec := NewJSONDecoder()
	a, err := dec.Decode(mustJSON(t, flat))
	require.NoError(t, err)
	b, err := dec.Decode(mustJSON(t, wrapped))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDecode_NestedMatchesFlat(t *testing.T) {
	flat := blockFields()
	flat["blockID"] = 42
	flat["entries"] = []any{entry(4)}

	inner := blockFields()
	inner["blockID"] = 42
	nested := map[string]any{"block": inner, "entries": []any{entry(4)}}

	dec := NewJSONDecoder()
	a, err := dec.Decode(mustJSON(t, flat))
	require.NoError(t, err)
	b, err := dec.Decode(mustJSON(t, nested))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDecode_Idempotent(t *testing.T) {
	msg := blockFields()
	msg["blockID"] = 9
	msg["entries"] = map[string]any{"entries": []any{entry(1), entry(2)}}
	data := mustJSON(t, msg)

	dec := NewJSONDecoder()
	a, err := dec.Decode(data)
	require.NoError(t, err)
	b, err := dec.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
