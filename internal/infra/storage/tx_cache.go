package storage

import (
	"context"
	"log/slog"

	"github.com/vietddude/ingestor/internal/core/domain"
)

// TxCache stores full encoded transactions keyed by signature.
type TxCache interface {
	Put(ctx context.Context, signature string, data []byte) error
}

// Encoder serializes values for the cache.
type Encoder interface {
	Marshal(value any) ([]byte, error)
}

// CachingStorage writes every uploaded transaction to a TxCache after the
// wrapped storage accepted the block. Cache failures are logged only.
type CachingStorage struct {
	inner   LedgerStorage
	cache   TxCache
	encoder Encoder
	log     *slog.Logger
}

func NewCachingStorage(inner LedgerStorage, cache TxCache, encoder Encoder) *CachingStorage {
	return &CachingStorage{
		inner:   inner,
		cache:   cache,
		encoder: encoder,
		log:     slog.Default().With("component", "tx_cache"),
	}
}

func (s *CachingStorage) UploadConfirmedBlock(ctx context.Context, slot uint64, block domain.VersionedBlock) error {
	if err := s.inner.UploadConfirmedBlock(ctx, slot, block); err != nil {
		return err
	}
	s.cacheTransactions(ctx, slot, block)
	return nil
}

func (s *CachingStorage) UploadConfirmedBlockWithEntries(ctx context.Context, slot uint64, block domain.VersionedBlockWithEntries) error {
	if err := s.inner.UploadConfirmedBlockWithEntries(ctx, slot, block); err != nil {
		return err
	}
	s.cacheTransactions(ctx, slot, block.Block)
	return nil
}

func (s *CachingStorage) cacheTransactions(ctx context.Context, slot uint64, block domain.VersionedBlock) {
	cached := 0
	for i, tx := range block.Transactions {
		sig, ok := tx.Signature()
		if !ok {
			continue
		}
		data, err := s.encoder.Marshal(tx)
		if err != nil {
			s.log.Warn("Failed to encode transaction for cache", "slot", slot, "index", i, "error", err)
			continue
		}
		if err := s.cache.Put(ctx, sig.String(), data); err != nil {
			s.log.Warn("Failed to cache transaction", "slot", slot, "signature", sig.String(), "error", err)
			continue
		}
		cached++
	}
	s.log.Debug("Cached transactions", "slot", slot, "count", cached)
}
