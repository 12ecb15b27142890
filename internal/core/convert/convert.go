// Package convert turns wire-form blocks into their storage-ready
// versioned form.
package convert

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/vietddude/ingestor/internal/core/domain"
)

var (
	ErrUnsupportedTransactionVersion = errors.New("unsupported transaction version")
	ErrMissingTransactionMeta        = errors.New("missing transaction status meta")
	ErrMissingTransaction            = errors.New("missing transaction")
)

// TransactionDetails selects how much of each transaction is kept.
type TransactionDetails int

const (
	TransactionDetailsFull TransactionDetails = iota
	TransactionDetailsSignatures
	TransactionDetailsNone
)

// Options controls block conversion.
type Options struct {
	TransactionDetails             TransactionDetails
	ShowRewards                    bool
	MaxSupportedTransactionVersion *uint8
	AddEmptyTxMetadataIfMissing    bool
}

// DefaultOptions keeps full transactions and rewards and accepts legacy
// and version 0 transactions.
func DefaultOptions() Options {
	v0 := uint8(0)
	return Options{
		TransactionDetails:             TransactionDetailsFull,
		ShowRewards:                    true,
		MaxSupportedTransactionVersion: &v0,
	}
}

// Converter converts EncodedBlocks using fixed options.
type Converter struct {
	opts Options
}

func NewConverter(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Convert produces the versioned form of block.
func (c *Converter) Convert(block domain.EncodedBlock) (domain.VersionedBlock, error) {
	prev, err := domain.ParseHash(block.PreviousBlockhash)
	if err != nil {
		return domain.VersionedBlock{}, fmt.Errorf("invalid previous blockhash: %w", err)
	}
	hash, err := domain.ParseHash(block.Blockhash)
	if err != nil {
		return domain.VersionedBlock{}, fmt.Errorf("invalid blockhash: %w", err)
	}

	out := domain.VersionedBlock{
		PreviousBlockhash: prev,
		Blockhash:         hash,
		ParentSlot:        block.ParentSlot,
		NumPartitions:     block.NumRewardPartitions,
		BlockTime:         block.BlockTime,
		BlockHeight:       block.BlockHeight,
	}
	if c.opts.ShowRewards {
		out.Rewards = block.Rewards
	}

	if c.opts.TransactionDetails == TransactionDetailsNone {
		return out, nil
	}

	out.Transactions = make([]domain.VersionedTransactionWithMeta, 0, len(block.Transactions))
	for i, tx := range block.Transactions {
		converted, err := c.convertTransaction(tx)
		if err != nil {
			return domain.VersionedBlock{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		out.Transactions = append(out.Transactions, converted)
	}
	return out, nil
}

func (c *Converter) convertTransaction(tx domain.EncodedTransactionWithMeta) (domain.VersionedTransactionWithMeta, error) {
	var (
		vtx domain.VersionedTransaction
		err error
	)
	switch tx.Transaction.Encoding {
	case domain.EncodingJSON:
		vtx, err = fromUiTransaction(tx.Transaction.JSON, tx.Version)
	case domain.EncodingBase58:
		vtx, err = fromBinary(tx.Transaction.Data, base58.Decode)
	case domain.EncodingBase64:
		vtx, err = fromBinary(tx.Transaction.Data, base64.StdEncoding.DecodeString)
	default:
		err = ErrMissingTransaction
	}
	if err != nil {
		return domain.VersionedTransactionWithMeta{}, err
	}

	if err := c.checkVersion(vtx.Message.Version); err != nil {
		return domain.VersionedTransactionWithMeta{}, err
	}

	meta := tx.Meta
	if meta == nil {
		if !c.opts.AddEmptyTxMetadataIfMissing {
			return domain.VersionedTransactionWithMeta{}, ErrMissingTransactionMeta
		}
		meta = &domain.TransactionStatusMeta{}
	}

	if c.opts.TransactionDetails == TransactionDetailsSignatures {
		vtx = domain.VersionedTransaction{Signatures: vtx.Signatures}
	}
	return domain.VersionedTransactionWithMeta{Transaction: vtx, Meta: meta}, nil
}

func (c *Converter) checkVersion(v domain.TransactionVersion) error {
	if v.Legacy {
		return nil
	}
	limit := c.opts.MaxSupportedTransactionVersion
	if limit == nil || v.Number > *limit {
		return fmt.Errorf("%w: %s", ErrUnsupportedTransactionVersion, v)
	}
	return nil
}

func fromBinary(data string, decode func(string) ([]byte, error)) (domain.VersionedTransaction, error) {
	raw, err := decode(data)
	if err != nil {
		return domain.VersionedTransaction{}, fmt.Errorf("failed to decode transaction bytes: %w", err)
	}
	vtx, err := decodeWireTransaction(raw)
	if err != nil {
		return domain.VersionedTransaction{}, fmt.Errorf("failed to deserialize transaction: %w", err)
	}
	return vtx, nil
}

func fromUiTransaction(ui *domain.UiTransaction, version *domain.TransactionVersion) (domain.VersionedTransaction, error) {
	if ui == nil {
		return domain.VersionedTransaction{}, ErrMissingTransaction
	}

	var vtx domain.VersionedTransaction
	vtx.Signatures = make([]domain.Signature, len(ui.Signatures))
	for i, s := range ui.Signatures {
		sig, err := domain.ParseSignature(s)
		if err != nil {
			return vtx, fmt.Errorf("signature %d: %w", i, err)
		}
		vtx.Signatures[i] = sig
	}

	msg := &vtx.Message
	msg.Version = domain.TransactionVersion{Legacy: true}
	if version != nil {
		msg.Version = *version
	}
	msg.Header = ui.Message.Header

	msg.AccountKeys = make([]domain.Pubkey, len(ui.Message.AccountKeys))
	for i, k := range ui.Message.AccountKeys {
		key, err := domain.ParsePubkey(k)
		if err != nil {
			return vtx, fmt.Errorf("account key %d: %w", i, err)
		}
		msg.AccountKeys[i] = key
	}

	blockhash, err := domain.ParseHash(ui.Message.RecentBlockhash)
	if err != nil {
		return vtx, fmt.Errorf("recent blockhash: %w", err)
	}
	msg.RecentBlockhash = blockhash

	msg.Instructions = make([]domain.CompiledInstruction, len(ui.Message.Instructions))
	for i, ix := range ui.Message.Instructions {
		accounts, err := toIndexes(ix.Accounts)
		if err != nil {
			return vtx, fmt.Errorf("instruction %d accounts: %w", i, err)
		}
		data, err := base58.Decode(ix.Data)
		if err != nil {
			return vtx, fmt.Errorf("instruction %d data: %w", i, err)
		}
		msg.Instructions[i] = domain.CompiledInstruction{
			ProgramIDIndex: ix.ProgramIDIndex,
			Accounts:       accounts,
			Data:           data,
		}
	}

	if len(ui.Message.AddressTableLookups) > 0 && msg.Version.Legacy {
		return vtx, fmt.Errorf("legacy transaction carries address table lookups")
	}
	for i, l := range ui.Message.AddressTableLookups {
		key, err := domain.ParsePubkey(l.AccountKey)
		if err != nil {
			return vtx, fmt.Errorf("lookup %d: %w", i, err)
		}
		writable, err := toIndexes(l.WritableIndexes)
		if err != nil {
			return vtx, fmt.Errorf("lookup %d writable: %w", i, err)
		}
		readonly, err := toIndexes(l.ReadonlyIndexes)
		if err != nil {
			return vtx, fmt.Errorf("lookup %d readonly: %w", i, err)
		}
		msg.AddressTableLookups = append(msg.AddressTableLookups, domain.AddressTableLookup{
			AccountKey:      key,
			WritableIndexes: writable,
			ReadonlyIndexes: readonly,
		})
	}

	return vtx, nil
}

func toIndexes(in []int) ([]uint8, error) {
	out := make([]uint8, len(in))
	for i, v := range in {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("account index %d out of range", v)
		}
		out[i] = uint8(v)
	}
	return out, nil
}
