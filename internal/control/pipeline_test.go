package control

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/ingestor/internal/core/config"
	"github.com/vietddude/ingestor/internal/core/decoder"
	"github.com/vietddude/ingestor/internal/infra/storage"
)

const zeroHash = "11111111111111111111111111111111"

func record(blockID int) string {
	return fmt.Sprintf(`{"result":{"block":{"blockID":%d,"previousBlockhash":%q,"blockhash":%q,"parentSlot":%d,"transactions":[]},`+
		`"entries":[{"numHashes":12,"hash":%q,"numTransactions":0,"startingTransactionIndex":0}]}}`,
		blockID, zeroHash, zeroHash, blockID-1, zeroHash)
}

func gzipFile(t *testing.T, lines ...string) string {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "blocks.ndjson.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestPipeline_FilePathEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := &config.AppConfig{Uploader: storage.UploaderConfig{WriteBlockEntries: true}}

	p, err := NewPipeline(ctx, cfg)
	require.NoError(t, err)
	defer p.Close()

	path := gzipFile(t, record(100), record(101), "", record(102))

	payload, err := decoder.NewJSONDecoder().Decode([]byte(path))
	require.NoError(t, err)
	require.NoError(t, p.Files.ProcessDecoded(ctx, payload))

	blocks, err := p.Ledger.LatestBlocks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, uint64(102), blocks[0].Slot)
	assert.Equal(t, uint64(101), blocks[0].ParentSlot)
}

func TestPipeline_CacheRequiresRedis(t *testing.T) {
	cfg := &config.AppConfig{Cache: config.CacheConfig{EnableFullTxCache: true}}

	_, err := NewPipeline(context.Background(), cfg)
	assert.Error(t, err)
}
