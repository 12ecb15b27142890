package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/ingestor/internal/core/convert"
	"github.com/vietddude/ingestor/internal/core/domain"
	"github.com/vietddude/ingestor/internal/indexing/metrics"
	"github.com/vietddude/ingestor/internal/infra/storage"
)

// BlockProcessor converts wire blocks and uploads them to ledger storage.
// Blocks are not deduplicated; storage upserts by slot.
type BlockProcessor struct {
	storage   storage.LedgerStorage
	converter *convert.Converter
	log       *slog.Logger
}

// NewBlockProcessor creates a block processor converting with opts.
func NewBlockProcessor(store storage.LedgerStorage, opts convert.Options) *BlockProcessor {
	return &BlockProcessor{
		storage:   store,
		converter: convert.NewConverter(opts),
		log:       slog.Default().With("component", "block_processor"),
	}
}

// HandleBlock converts and uploads a block without entries.
func (p *BlockProcessor) HandleBlock(ctx context.Context, blockID uint64, block domain.EncodedBlock) error {
	start := time.Now()
	versioned, err := p.converter.Convert(block)
	if err != nil {
		return fmt.Errorf("failed to convert block: %w", err)
	}
	if err := p.storage.UploadConfirmedBlock(ctx, blockID, versioned); err != nil {
		return fmt.Errorf("failed to upload confirmed block: %w", err)
	}

	p.observe("block", blockID, len(versioned.Transactions), 0, start)
	return nil
}

// HandleBlockWithEntries converts a block and uploads it together with its
// entry summaries.
func (p *BlockProcessor) HandleBlockWithEntries(ctx context.Context, blockID uint64, block domain.EncodedBlock, entries []domain.EntrySummary) error {
	start := time.Now()
	versioned, err := p.converter.Convert(block)
	if err != nil {
		return fmt.Errorf("failed to convert block: %w", err)
	}
	bundle := domain.VersionedBlockWithEntries{Block: versioned, Entries: entries}
	if err := p.storage.UploadConfirmedBlockWithEntries(ctx, blockID, bundle); err != nil {
		return fmt.Errorf("failed to upload confirmed block with entries: %w", err)
	}

	metrics.EntriesUploaded.Add(float64(len(entries)))
	p.observe("block_with_entries", blockID, len(versioned.Transactions), len(entries), start)
	return nil
}

func (p *BlockProcessor) observe(kind string, blockID uint64, txs, entries int, start time.Time) {
	metrics.BlocksUploaded.WithLabelValues(kind).Inc()
	metrics.ProcessLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.LatestUploadedSlot.Set(float64(blockID))
	p.log.Debug("Uploaded block",
		"slot", blockID,
		"txs", txs,
		"entries", entries,
		"duration", time.Since(start),
	)
}
