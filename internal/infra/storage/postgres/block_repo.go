package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/ingestor/internal/core/domain"
	"github.com/vietddude/ingestor/internal/infra/storage"
)

// BlockEncoder serializes blocks for the data column.
type BlockEncoder interface {
	Encode(value any) ([]byte, error)
	Compress(data []byte) []byte
}

// LedgerRepo implements storage.LedgerStorage using PostgreSQL.
type LedgerRepo struct {
	db      *DB
	cfg     storage.UploaderConfig
	encoder BlockEncoder
}

// NewLedgerRepo creates a new PostgreSQL ledger repository.
func NewLedgerRepo(db *DB, cfg storage.UploaderConfig, encoder BlockEncoder) *LedgerRepo {
	return &LedgerRepo{db: db, cfg: cfg, encoder: encoder}
}

// UploadConfirmedBlock stores a block and its index rows.
func (r *LedgerRepo) UploadConfirmedBlock(ctx context.Context, slot uint64, block domain.VersionedBlock) error {
	return r.upload(ctx, slot, block, r.cfg.Plan(slot, block, nil))
}

// UploadConfirmedBlockWithEntries stores a block, its index rows and, when
// enabled, its entry summaries.
func (r *LedgerRepo) UploadConfirmedBlockWithEntries(ctx context.Context, slot uint64, block domain.VersionedBlockWithEntries) error {
	return r.upload(ctx, slot, block.Block, r.cfg.Plan(slot, block.Block, block.Entries))
}

func (r *LedgerRepo) upload(ctx context.Context, slot uint64, block domain.VersionedBlock, plan storage.UploadPlan) error {
	var data []byte
	compressed := !r.cfg.DisableBlocksCompression
	if plan.Block != nil {
		encoded, err := r.encoder.Encode(block)
		if err != nil {
			return fmt.Errorf("failed to encode block %d: %w", slot, err)
		}
		data = encoded
		if compressed {
			data = r.encoder.Compress(encoded)
		}
	}

	uow, err := r.db.NewUnitOfWork(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	if plan.Block != nil {
		if err := uow.SaveBlock(ctx, *plan.Block, data, compressed); err != nil {
			return err
		}
	}
	if err := uow.SaveTransactions(ctx, plan.Transactions); err != nil {
		return err
	}
	if err := uow.SaveAddresses(ctx, plan.Addresses); err != nil {
		return err
	}
	if plan.Entries != nil {
		if err := uow.SaveEntries(ctx, slot, plan.Entries); err != nil {
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit block %d: %w", slot, err)
	}
	return nil
}

type blockRow struct {
	Slot        int64         `db:"slot"`
	Blockhash   string        `db:"blockhash"`
	ParentSlot  int64         `db:"parent_slot"`
	BlockTime   sql.NullInt64 `db:"block_time"`
	BlockHeight sql.NullInt64 `db:"block_height"`
	TxCount     int           `db:"tx_count"`
	UploadedAt  time.Time     `db:"uploaded_at"`
}

func (b *blockRow) toDomain() domain.StoredBlock {
	out := domain.StoredBlock{
		Slot:       uint64(b.Slot),
		Blockhash:  b.Blockhash,
		ParentSlot: uint64(b.ParentSlot),
		TxCount:    b.TxCount,
		UploadedAt: b.UploadedAt,
	}
	if b.BlockTime.Valid {
		t := b.BlockTime.Int64
		out.BlockTime = &t
	}
	if b.BlockHeight.Valid {
		h := uint64(b.BlockHeight.Int64)
		out.BlockHeight = &h
	}
	return out
}

// LatestBlocks returns up to limit blocks, newest slot first.
func (r *LedgerRepo) LatestBlocks(ctx context.Context, limit int) ([]domain.StoredBlock, error) {
	query := `
		SELECT slot, blockhash, parent_slot, block_time, block_height, tx_count, uploaded_at
		FROM blocks
		ORDER BY slot DESC
		LIMIT $1
	`

	var rows []blockRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}

	out := make([]domain.StoredBlock, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// LatestSlot returns the newest stored slot.
func (r *LedgerRepo) LatestSlot(ctx context.Context) (uint64, bool, error) {
	var slot sql.NullInt64
	err := r.db.GetContext(ctx, &slot, `SELECT MAX(slot) FROM blocks`)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !slot.Valid) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get latest slot: %w", err)
	}
	return uint64(slot.Int64), true, nil
}

// PruneBelow deletes every row stored for slots lower than slot and
// returns the number of blocks removed.
func (r *LedgerRepo) PruneBelow(ctx context.Context, slot uint64) (int64, error) {
	uow, err := r.db.NewUnitOfWork(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = uow.Rollback()
	}()

	var removed int64
	for _, table := range []string{"entries", "tx_by_addr", "transactions", "blocks"} {
		res, err := uow.tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE slot < $1`, table), int64(slot))
		if err != nil {
			return 0, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		if table == "blocks" {
			removed, _ = res.RowsAffected()
		}
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return removed, nil
}
