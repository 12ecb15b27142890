package storage

import (
	"encoding/json"
	"time"

	"github.com/vietddude/ingestor/internal/core/domain"
)

// VoteProgramID is the address of the vote program.
const VoteProgramID = "Vote111111111111111111111111111111111111111"

// UploaderConfig selects which ledger tables are written and which
// transactions are indexed.
type UploaderConfig struct {
	DisableBlocks            bool     `yaml:"disable_blocks"`
	DisableTx                bool     `yaml:"disable_tx"`
	DisableTxByAddr          bool     `yaml:"disable_tx_by_addr"`
	DisableBlocksCompression bool     `yaml:"disable_blocks_compression"`
	WriteBlockEntries        bool     `yaml:"write_block_entries"`
	FilterTxVoting           bool     `yaml:"filter_tx_voting"`
	FilterTxError            bool     `yaml:"filter_tx_error"`
	TxByAddrInclude          []string `yaml:"tx_by_addr_include"`
	TxByAddrExclude          []string `yaml:"tx_by_addr_exclude"`
}

// UploadPlan is the set of rows one block upload writes.
type UploadPlan struct {
	Block        *domain.StoredBlock
	Transactions []domain.StoredTransaction
	Addresses    []domain.AddressSignature
	Entries      []domain.EntrySummary
}

// Plan computes the rows for a block according to the config.
func (c UploaderConfig) Plan(slot uint64, block domain.VersionedBlock, entries []domain.EntrySummary) UploadPlan {
	var plan UploadPlan

	if !c.DisableBlocks {
		plan.Block = &domain.StoredBlock{
			Slot:        slot,
			Blockhash:   block.Blockhash.String(),
			ParentSlot:  block.ParentSlot,
			BlockTime:   block.BlockTime,
			BlockHeight: block.BlockHeight,
			TxCount:     len(block.Transactions),
			UploadedAt:  time.Now().UTC(),
		}
	}

	if c.WriteBlockEntries && len(entries) > 0 {
		plan.Entries = entries
	}

	if c.DisableTx && c.DisableTxByAddr {
		return plan
	}

	filter := newAddressFilter(c.TxByAddrInclude, c.TxByAddrExclude)
	for i, tx := range block.Transactions {
		sig, ok := tx.Signature()
		if !ok {
			continue
		}
		if c.FilterTxVoting && IsVote(tx) {
			continue
		}
		if c.FilterTxError && tx.Meta.Failed() {
			continue
		}

		signature := sig.String()
		if !c.DisableTx {
			plan.Transactions = append(plan.Transactions, domain.StoredTransaction{
				Signature: signature,
				Slot:      slot,
				Index:     i,
				Err:       errString(tx.Meta),
				Fee:       fee(tx.Meta),
				IsVote:    IsVote(tx),
			})
		}
		if !c.DisableTxByAddr {
			for _, addr := range Addresses(tx) {
				if !filter.keep(addr) {
					continue
				}
				plan.Addresses = append(plan.Addresses, domain.AddressSignature{
					Address:   addr,
					Signature: signature,
					Slot:      slot,
					Index:     i,
				})
			}
		}
	}

	return plan
}

// IsVote reports whether any instruction invokes the vote program.
func IsVote(tx domain.VersionedTransactionWithMeta) bool {
	msg := tx.Transaction.Message
	for _, ix := range msg.Instructions {
		if id, ok := msg.ProgramID(ix); ok && id.String() == VoteProgramID {
			return true
		}
	}
	return false
}

// Addresses returns the distinct accounts a transaction touches, static
// keys first, then addresses loaded from lookup tables.
func Addresses(tx domain.VersionedTransactionWithMeta) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(addr string) {
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}

	for _, key := range tx.Transaction.Message.AccountKeys {
		add(key.String())
	}
	if tx.Meta != nil && tx.Meta.LoadedAddresses != nil {
		for _, addr := range tx.Meta.LoadedAddresses.Writable {
			add(addr)
		}
		for _, addr := range tx.Meta.LoadedAddresses.Readonly {
			add(addr)
		}
	}
	return out
}

func errString(meta *domain.TransactionStatusMeta) string {
	if !meta.Failed() {
		return ""
	}
	data, err := json.Marshal(meta.Err)
	if err != nil {
		return "unknown"
	}
	return string(data)
}

func fee(meta *domain.TransactionStatusMeta) uint64 {
	if meta == nil {
		return 0
	}
	return meta.Fee
}

// addressFilter keeps an address unless it is excluded, or an include
// list exists and the address is not on it.
type addressFilter struct {
	include map[string]struct{}
	exclude map[string]struct{}
}

func newAddressFilter(include, exclude []string) addressFilter {
	toSet := func(in []string) map[string]struct{} {
		if len(in) == 0 {
			return nil
		}
		set := make(map[string]struct{}, len(in))
		for _, s := range in {
			set[s] = struct{}{}
		}
		return set
	}
	return addressFilter{include: toSet(include), exclude: toSet(exclude)}
}

func (f addressFilter) keep(addr string) bool {
	if _, ok := f.exclude[addr]; ok {
		return false
	}
	if f.include == nil {
		return true
	}
	_, ok := f.include[addr]
	return ok
}
