package storage

import (
	"context"

	"github.com/vietddude/ingestor/internal/core/domain"
)

// LedgerStorage persists converted blocks.
type LedgerStorage interface {
	// UploadConfirmedBlock stores a block without entry summaries
	UploadConfirmedBlock(ctx context.Context, slot uint64, block domain.VersionedBlock) error

	// UploadConfirmedBlockWithEntries stores a block and, when enabled, its entries
	UploadConfirmedBlockWithEntries(ctx context.Context, slot uint64, block domain.VersionedBlockWithEntries) error
}

// BlockReader lists stored blocks.
type BlockReader interface {
	// LatestBlocks returns up to limit blocks, newest slot first
	LatestBlocks(ctx context.Context, limit int) ([]domain.StoredBlock, error)
}

// Pruner removes old ledger data.
type Pruner interface {
	// LatestSlot returns the newest stored slot, or false when empty
	LatestSlot(ctx context.Context) (uint64, bool, error)

	// PruneBelow deletes everything stored for slots lower than slot
	PruneBelow(ctx context.Context, slot uint64) (int64, error)
}

// Ledger is a storage backend that can be written, listed and pruned.
type Ledger interface {
	LedgerStorage
	BlockReader
	Pruner
}
