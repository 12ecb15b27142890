package decoder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vietddude/ingestor/internal/core/domain"
)

// Record is one block parsed from a bulk NDJSON file.
type Record struct {
	BlockID uint64
	Block   domain.EncodedBlock
	Entries []domain.EntrySummary
}

// NDJSONParser parses lines of a bulk block file.
type NDJSONParser struct{}

func NewNDJSONParser() *NDJSONParser {
	return &NDJSONParser{}
}

// ParseRecord parses one line. It returns nil, nil for blank lines and for
// lines that are valid JSON but carry no block. Errors include the line.
func (p *NDJSONParser) ParseRecord(line string) (*Record, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, nil
	}

	value, err := parseJSON([]byte(trimmed))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON line: %s: %w", trimmed, err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, nil
	}
	obj = unwrapResult(obj)

	rec, ok, err := matchBlock(obj)
	if err != nil {
		if errors.Is(err, ErrMissingNestedBlockID) {
			return nil, fmt.Errorf("%w in record: %s", err, trimmed)
		}
		return nil, fmt.Errorf("%w: line: %s", err, trimmed)
	}
	if !ok {
		return nil, nil
	}
	return &Record{BlockID: rec.id, Block: rec.block, Entries: rec.entries}, nil
}
