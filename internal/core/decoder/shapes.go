package decoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vietddude/ingestor/internal/core/domain"
)

const encodedBlockType = "EncodedConfirmedBlock"

// blockRecord is the shape-independent result of matching a block payload.
type blockRecord struct {
	id      uint64
	block   domain.EncodedBlock
	entries []domain.EntrySummary
}

// blockMatcher inspects an object and reports whether it has its shape.
// A matched shape with bad contents returns an error. An unmatched shape
// returns (nil, false, nil) so the next matcher is tried.
type blockMatcher func(obj map[string]any) (*blockRecord, bool, error)

// blockMatchers are evaluated in order; the first match wins.
var blockMatchers = []blockMatcher{
	matchTopLevelBlock,
	matchNestedBlock,
}

// parseJSON decodes a single JSON document, keeping numbers as json.Number.
func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return value, nil
}

// unwrapResult replaces an object with its "result" object, one level only.
func unwrapResult(obj map[string]any) map[string]any {
	if inner, ok := obj["result"].(map[string]any); ok {
		return inner
	}
	return obj
}

// parseBlockID accepts a JSON number or a numeric string.
func parseBlockID(v any) (uint64, error) {
	var text string
	switch id := v.(type) {
	case json.Number:
		text = id.String()
	case string:
		text = strings.TrimSpace(id)
	default:
		return 0, fmt.Errorf("%w: got %T", ErrInvalidBlockID, v)
	}
	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBlockID, text)
	}
	return n, nil
}

// without returns a shallow copy of obj minus the given keys.
func without(obj map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func decodeBlockBody(body map[string]any, entriesValue any, id uint64) (*blockRecord, error) {
	var block domain.EncodedBlock
	if err := FromValue(body, encodedBlockType, &block); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", encodedBlockType, err)
	}
	entries, err := ParseEntries(entriesValue)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entries: %w", err)
	}
	return &blockRecord{id: id, block: block, entries: entries}, nil
}

// matchTopLevelBlock handles {"blockID": N, ...block fields, "entries": ...}.
// A blockID that is not an unsigned integer does not match.
func matchTopLevelBlock(obj map[string]any) (*blockRecord, bool, error) {
	rawID, ok := obj["blockID"]
	if !ok {
		return nil, false, nil
	}
	id, err := parseBlockID(rawID)
	if err != nil {
		return nil, false, nil
	}
	rec, err := decodeBlockBody(without(obj, "entries", "blockID"), obj["entries"], id)
	return rec, true, err
}

// matchNestedBlock handles {"block": {"blockID": N, ...}, "entries": ...}.
// Any "block" key matches; a missing or unreadable block.blockID fails.
func matchNestedBlock(obj map[string]any) (*blockRecord, bool, error) {
	rawBlock, ok := obj["block"]
	if !ok {
		return nil, false, nil
	}
	nested, ok := rawBlock.(map[string]any)
	if !ok {
		return nil, true, ErrMissingNestedBlockID
	}
	rawID, ok := nested["blockID"]
	if !ok {
		return nil, true, ErrMissingNestedBlockID
	}
	id, err := parseBlockID(rawID)
	if err != nil {
		return nil, true, ErrMissingNestedBlockID
	}
	rec, err := decodeBlockBody(without(nested, "blockID"), obj["entries"], id)
	return rec, true, err
}

func matchBlock(obj map[string]any) (*blockRecord, bool, error) {
	for _, match := range blockMatchers {
		rec, ok, err := match(obj)
		if ok || err != nil {
			return rec, ok, err
		}
	}
	return nil, false, nil
}
