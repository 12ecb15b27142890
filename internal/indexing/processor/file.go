package processor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/vietddude/ingestor/internal/core/decoder"
	"github.com/vietddude/ingestor/internal/core/domain"
	"github.com/vietddude/ingestor/internal/indexing/metrics"
)

// DefaultMaxLineSize bounds a single NDJSON line of a bulk file.
const DefaultMaxLineSize = 64 << 20

// BlockHandler uploads decoded blocks.
type BlockHandler interface {
	HandleBlock(ctx context.Context, blockID uint64, block domain.EncodedBlock) error
	HandleBlockWithEntries(ctx context.Context, blockID uint64, block domain.EncodedBlock, entries []domain.EntrySummary) error
}

// FileOpener opens a (possibly remote, possibly compressed) file.
type FileOpener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// FileProcessor routes decoded payloads to the block handler. File
// references are read as NDJSON and every record is uploaded.
type FileProcessor struct {
	blocks      BlockHandler
	opener      FileOpener
	parser      *decoder.NDJSONParser
	maxLineSize int
	log         *slog.Logger
}

// NewFileProcessor creates a processor. A non-positive maxLineSize uses
// DefaultMaxLineSize.
func NewFileProcessor(blocks BlockHandler, opener FileOpener, maxLineSize int) *FileProcessor {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	return &FileProcessor{
		blocks:      blocks,
		opener:      opener,
		parser:      decoder.NewNDJSONParser(),
		maxLineSize: maxLineSize,
		log:         slog.Default().With("component", "file_processor"),
	}
}

// ProcessDecoded handles one decoded payload.
func (p *FileProcessor) ProcessDecoded(ctx context.Context, payload domain.DecodedPayload) error {
	switch v := payload.(type) {
	case domain.FilePath:
		return p.ProcessFile(ctx, v.Path)
	case domain.Block:
		return p.blocks.HandleBlock(ctx, v.BlockID, v.Block)
	case domain.BlockWithEntries:
		return p.blocks.HandleBlockWithEntries(ctx, v.BlockID, v.Block, v.Entries)
	default:
		return fmt.Errorf("unsupported payload type %T", payload)
	}
}

// ProcessFile uploads every block record in the file at path. Record
// failures do not stop the file; they are collected and returned together.
func (p *FileProcessor) ProcessFile(ctx context.Context, path string) error {
	r, err := p.opener.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer r.Close()

	log := p.log.With("path", path)
	log.Info("Processing file")

	var result *multierror.Error
	var ok, skipped int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), p.maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		record, err := p.parser.ParseRecord(scanner.Text())
		if err != nil {
			log.Warn("Failed to parse record", "line", line, "error", err)
			metrics.FileRecordsProcessed.WithLabelValues("failed").Inc()
			result = multierror.Append(result, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if record == nil {
			skipped++
			continue
		}

		if err := p.blocks.HandleBlockWithEntries(ctx, record.BlockID, record.Block, record.Entries); err != nil {
			log.Warn("Failed to process record", "line", line, "slot", record.BlockID, "error", err)
			metrics.FileRecordsProcessed.WithLabelValues("failed").Inc()
			result = multierror.Append(result, fmt.Errorf("line %d (block %d): %w", line, record.BlockID, err))
			continue
		}
		metrics.FileRecordsProcessed.WithLabelValues("ok").Inc()
		ok++
	}
	if err := scanner.Err(); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to read %s: %w", path, err))
	}

	failed := 0
	if result != nil {
		failed = len(result.Errors)
	}
	log.Info("Processed file", "ok", ok, "skipped", skipped, "failed", failed)
	return result.ErrorOrNil()
}
