// Package decoder turns raw queue messages and NDJSON lines into domain
// payloads. It accepts several wire shapes for the same block and reports
// deserialization failures with the JSON path that caused them.
package decoder

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vietddude/ingestor/internal/core/domain"
)

// JSONDecoder decodes queue message payloads.
type JSONDecoder struct{}

func NewJSONDecoder() *JSONDecoder {
	return &JSONDecoder{}
}

// Decode classifies a payload. Recognized shapes, in order of precedence:
//
//	{"blockID": N, <block fields>, "entries": ...}
//	{"block": {"blockID": N, <block fields>}, "entries": ...}
//	{"hdfs_path": "..."}
//
// Any of these may be wrapped in {"result": {...}}. Non-JSON text that
// ends in ".gz" or contains "hdfs://" is taken as a file path.
func (d *JSONDecoder) Decode(data []byte) (domain.DecodedPayload, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	text := string(data)

	value, err := parseJSON(data)
	if err != nil {
		trimmed := strings.TrimSpace(text)
		if looksLikeFilePath(trimmed) {
			return domain.FilePath{Path: trimmed}, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFilePath, trimmed)
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedPayload, text)
	}
	obj = unwrapResult(obj)

	rec, ok, err := matchBlock(obj)
	if err != nil {
		if errors.Is(err, ErrMissingNestedBlockID) {
			return nil, fmt.Errorf("%w in payload", err)
		}
		return nil, err
	}
	if ok {
		return domain.BlockWithEntries{
			BlockID: rec.id,
			Block:   rec.block,
			Entries: rec.entries,
		}, nil
	}

	if path, ok := obj["hdfs_path"].(string); ok {
		return domain.FilePath{Path: path}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnrecognizedPayload, text)
}

func looksLikeFilePath(s string) bool {
	return strings.HasSuffix(s, ".gz") || strings.Contains(s, "hdfs://")
}
