package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/ingestor/internal/core/domain"
)

// UnitOfWork bundles the writes of one block upload into a single database
// transaction, so a block and its index rows land together or not at all.
type UnitOfWork struct {
	tx *sqlx.Tx
}

// NewUnitOfWork creates a new unit of work with an active transaction.
func (db *DB) NewUnitOfWork(ctx context.Context) (*UnitOfWork, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &UnitOfWork{tx: tx}, nil
}

// Commit commits the transaction.
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("transaction already completed")
	}
	err := u.tx.Commit()
	u.tx = nil
	return err
}

// Rollback rolls back the transaction. Safe to call multiple times.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback()
	u.tx = nil
	return err
}

// SaveBlock upserts a block row with its encoded payload.
func (u *UnitOfWork) SaveBlock(ctx context.Context, b domain.StoredBlock, data []byte, compressed bool) error {
	query := `
		INSERT INTO blocks (slot, blockhash, parent_slot, block_time, block_height, tx_count, compressed, data, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slot) DO UPDATE SET
			blockhash = EXCLUDED.blockhash,
			parent_slot = EXCLUDED.parent_slot,
			block_time = EXCLUDED.block_time,
			block_height = EXCLUDED.block_height,
			tx_count = EXCLUDED.tx_count,
			compressed = EXCLUDED.compressed,
			data = EXCLUDED.data,
			uploaded_at = EXCLUDED.uploaded_at
	`
	_, err := u.tx.ExecContext(ctx, query,
		int64(b.Slot),
		b.Blockhash,
		int64(b.ParentSlot),
		b.BlockTime,
		nullableUint(b.BlockHeight),
		b.TxCount,
		compressed,
		data,
		b.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save block: %w", err)
	}
	return nil
}

// postgresMaxParams is the bind parameter limit of a single statement.
const postgresMaxParams = 65535

// insertRows runs a multi-row INSERT in chunks that stay under the bind
// parameter limit. row returns the column values of row i.
func (u *UnitOfWork) insertRows(ctx context.Context, head, tail string, cols, n int, row func(i int) []any) error {
	perChunk := postgresMaxParams / cols
	for start := 0; start < n; start += perChunk {
		end := min(start+perChunk, n)
		query, args := buildInsert(head, tail, cols, start, end, row)
		if _, err := u.tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func buildInsert(head, tail string, cols, start, end int, row func(i int) []any) (string, []any) {
	values := make([]string, 0, end-start)
	args := make([]any, 0, (end-start)*cols)
	for i := start; i < end; i++ {
		placeholders := make([]string, cols)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", len(args)+c+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, row(i)...)
	}
	return strings.TrimSpace(head + " VALUES " + strings.Join(values, ", ") + " " + tail), args
}

// SaveTransactions upserts transaction rows.
func (u *UnitOfWork) SaveTransactions(ctx context.Context, txs []domain.StoredTransaction) error {
	err := u.insertRows(ctx,
		`INSERT INTO transactions (signature, slot, tx_index, err, fee, is_vote)`,
		`ON CONFLICT (signature) DO UPDATE SET
			slot = EXCLUDED.slot,
			tx_index = EXCLUDED.tx_index,
			err = EXCLUDED.err,
			fee = EXCLUDED.fee,
			is_vote = EXCLUDED.is_vote`,
		6, len(txs), func(i int) []any {
			t := txs[i]
			return []any{t.Signature, int64(t.Slot), t.Index, nullableString(t.Err), int64(t.Fee), t.IsVote}
		})
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	return nil
}

// SaveAddresses inserts address index rows, ignoring existing pairs.
func (u *UnitOfWork) SaveAddresses(ctx context.Context, rows []domain.AddressSignature) error {
	err := u.insertRows(ctx,
		`INSERT INTO tx_by_addr (address, signature, slot, tx_index)`,
		`ON CONFLICT (address, signature) DO NOTHING`,
		4, len(rows), func(i int) []any {
			r := rows[i]
			return []any{r.Address, r.Signature, int64(r.Slot), r.Index}
		})
	if err != nil {
		return fmt.Errorf("failed to save address index: %w", err)
	}
	return nil
}

// SaveEntries replaces the entry summaries stored for a slot.
func (u *UnitOfWork) SaveEntries(ctx context.Context, slot uint64, entries []domain.EntrySummary) error {
	if _, err := u.tx.ExecContext(ctx, `DELETE FROM entries WHERE slot = $1`, int64(slot)); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	err := u.insertRows(ctx,
		`INSERT INTO entries (slot, entry_index, num_hashes, hash, num_transactions, starting_transaction_index)`,
		``,
		6, len(entries), func(i int) []any {
			e := entries[i]
			return []any{int64(slot), i, int64(e.NumHashes), e.Hash.String(),
				int64(e.NumTransactions), int64(e.StartingTransactionIndex)}
		})
	if err != nil {
		return fmt.Errorf("failed to save entries: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableUint(v *uint64) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
