package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/ingestor/internal/core/domain"
	"github.com/vietddude/ingestor/internal/infra/storage"
)

// MemoryStorage is an in-process ledger used when no database is configured.
type MemoryStorage struct {
	cfg     storage.UploaderConfig
	blocks  map[uint64]domain.StoredBlock
	full    map[uint64]domain.VersionedBlock
	txs     map[string]domain.StoredTransaction
	byAddr  map[string][]domain.AddressSignature
	entries map[uint64][]domain.EntrySummary
	mu      sync.RWMutex
}

func NewMemoryStorage(cfg storage.UploaderConfig) *MemoryStorage {
	return &MemoryStorage{
		cfg:     cfg,
		blocks:  make(map[uint64]domain.StoredBlock),
		full:    make(map[uint64]domain.VersionedBlock),
		txs:     make(map[string]domain.StoredTransaction),
		byAddr:  make(map[string][]domain.AddressSignature),
		entries: make(map[uint64][]domain.EntrySummary),
	}
}

// -----------------------------------------------------------------------------
// Ledger
// -----------------------------------------------------------------------------

func (s *MemoryStorage) UploadConfirmedBlock(ctx context.Context, slot uint64, block domain.VersionedBlock) error {
	s.apply(slot, block, s.cfg.Plan(slot, block, nil))
	return nil
}

func (s *MemoryStorage) UploadConfirmedBlockWithEntries(ctx context.Context, slot uint64, block domain.VersionedBlockWithEntries) error {
	s.apply(slot, block.Block, s.cfg.Plan(slot, block.Block, block.Entries))
	return nil
}

func (s *MemoryStorage) apply(slot uint64, block domain.VersionedBlock, plan storage.UploadPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.Block != nil {
		s.blocks[slot] = *plan.Block
		s.full[slot] = block
	}
	for _, tx := range plan.Transactions {
		s.txs[tx.Signature] = tx
	}
	for _, a := range plan.Addresses {
		if !containsSignature(s.byAddr[a.Address], a.Signature) {
			s.byAddr[a.Address] = append(s.byAddr[a.Address], a)
		}
	}
	if plan.Entries != nil {
		s.entries[slot] = plan.Entries
	}
}

func containsSignature(list []domain.AddressSignature, sig string) bool {
	for _, a := range list {
		if a.Signature == sig {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func (s *MemoryStorage) Block(slot uint64) (domain.VersionedBlock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.full[slot]
	return b, ok
}

func (s *MemoryStorage) Transaction(signature string) (domain.StoredTransaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[signature]
	return tx, ok
}

func (s *MemoryStorage) SignaturesForAddress(addr string) []domain.AddressSignature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AddressSignature(nil), s.byAddr[addr]...)
}

func (s *MemoryStorage) Entries(slot uint64) ([]domain.EntrySummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[slot]
	return e, ok
}

func (s *MemoryStorage) LatestBlocks(ctx context.Context, limit int) ([]domain.StoredBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StoredBlock, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot > out[j].Slot })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Pruning
// -----------------------------------------------------------------------------

func (s *MemoryStorage) LatestSlot(ctx context.Context) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest uint64
	found := false
	for slot := range s.blocks {
		if !found || slot > latest {
			latest = slot
			found = true
		}
	}
	return latest, found, nil
}

func (s *MemoryStorage) PruneBelow(ctx context.Context, slot uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for k := range s.blocks {
		if k < slot {
			delete(s.blocks, k)
			delete(s.full, k)
			removed++
		}
	}
	for k := range s.entries {
		if k < slot {
			delete(s.entries, k)
		}
	}
	for sig, tx := range s.txs {
		if tx.Slot < slot {
			delete(s.txs, sig)
		}
	}
	for addr, list := range s.byAddr {
		kept := list[:0]
		for _, a := range list {
			if a.Slot >= slot {
				kept = append(kept, a)
			}
		}
		if len(kept) == 0 {
			delete(s.byAddr, addr)
		} else {
			s.byAddr[addr] = kept
		}
	}
	return removed, nil
}
