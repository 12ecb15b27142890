package ingestor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/ingestor/internal/core/decoder"
	"github.com/vietddude/ingestor/internal/core/domain"
)

const zeroHash = "11111111111111111111111111111111"

func blockLine(blockID int) string {
	return fmt.Sprintf(`{"blockID":%d,"previousBlockhash":%q,"blockhash":%q,"parentSlot":1,"transactions":[]}`,
		blockID, zeroHash, zeroHash)
}

func TestLineRunner_ValidateOnly(t *testing.T) {
	input := strings.Join([]string{
		blockLine(7),
		"",
		"/data/blocks.gz",
		`{"block":{"parentSlot":1}}`,
	}, "\n")

	var out bytes.Buffer
	proc := &mockProcessor{}
	runner := NewLineRunner(decoder.NewJSONDecoder(), proc, &out, 0)

	require.NoError(t, runner.Run(context.Background(), strings.NewReader(input), true))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Parsed block with entries: blockID=7", lines[0])
	assert.Equal(t, "Parsed file path payload (unexpected in validate-only): /data/blocks.gz", lines[1])
	assert.Equal(t, "Failed to decode input: missing block.blockID in payload", lines[2])
	assert.Equal(t, "  caused by: missing block.blockID", lines[3])
	assert.Empty(t, proc.seen)
}

func TestLineRunner_Process(t *testing.T) {
	input := strings.Join([]string{"/data/a.gz", "/data/b.gz", "not json"}, "\n")

	var out bytes.Buffer
	proc := &mockProcessor{fails: map[string]error{"/data/a.gz": errors.New("missing")}}
	runner := NewLineRunner(decoder.NewJSONDecoder(), proc, &out, 0)

	require.NoError(t, runner.Run(context.Background(), strings.NewReader(input), false))

	require.Len(t, proc.seen, 2)
	assert.Equal(t, domain.FilePath{Path: "/data/b.gz"}, proc.seen[1])
	assert.Contains(t, out.String(), "Error processing input: missing")
	assert.Contains(t, out.String(), "Failed to decode input: unable to decode message as JSON or file path: not json")
}
