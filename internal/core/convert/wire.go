package convert

import (
	"errors"
	"fmt"

	"github.com/vietddude/ingestor/internal/core/domain"
)

var errShortBuffer = errors.New("unexpected end of transaction data")

// wireReader walks the binary transaction layout: compact-u16 length
// prefixes, 64-byte signatures and 32-byte keys.
type wireReader struct {
	buf []byte
	pos int
}

func (r *wireReader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, errShortBuffer
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *wireReader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, errShortBuffer
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// compactU16 reads the shortvec length encoding (1 to 3 bytes).
func (r *wireReader) compactU16() (int, error) {
	var value int
	for i := 0; i < 3; i++ {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		value |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return value, nil
		}
	}
	return 0, fmt.Errorf("compact-u16 length overflows")
}

func (r *wireReader) byteVec() ([]byte, error) {
	n, err := r.compactU16()
	if err != nil {
		return nil, err
	}
	b, err := r.readBytes(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (r *wireReader) pubkey() (domain.Pubkey, error) {
	var p domain.Pubkey
	b, err := r.readBytes(domain.PubkeySize)
	if err != nil {
		return p, err
	}
	copy(p[:], b)
	return p, nil
}

// decodeWireTransaction parses a serialized legacy or v0 transaction.
func decodeWireTransaction(raw []byte) (domain.VersionedTransaction, error) {
	r := &wireReader{buf: raw}
	var tx domain.VersionedTransaction

	numSigs, err := r.compactU16()
	if err != nil {
		return tx, fmt.Errorf("signatures: %w", err)
	}
	tx.Signatures = make([]domain.Signature, numSigs)
	for i := range tx.Signatures {
		b, err := r.readBytes(domain.SignatureSize)
		if err != nil {
			return tx, fmt.Errorf("signature %d: %w", i, err)
		}
		copy(tx.Signatures[i][:], b)
	}

	msg := &tx.Message
	prefix, err := r.readByte()
	if err != nil {
		return tx, fmt.Errorf("message: %w", err)
	}
	if prefix&0x80 != 0 {
		msg.Version = domain.TransactionVersion{Number: prefix & 0x7f}
		if msg.Version.Number != 0 {
			return tx, fmt.Errorf("%w: %d", ErrUnsupportedTransactionVersion, msg.Version.Number)
		}
		if msg.Header.NumRequiredSignatures, err = r.readByte(); err != nil {
			return tx, fmt.Errorf("header: %w", err)
		}
	} else {
		msg.Version = domain.TransactionVersion{Legacy: true}
		msg.Header.NumRequiredSignatures = prefix
	}
	if msg.Header.NumReadonlySignedAccounts, err = r.readByte(); err != nil {
		return tx, fmt.Errorf("header: %w", err)
	}
	if msg.Header.NumReadonlyUnsignedAccounts, err = r.readByte(); err != nil {
		return tx, fmt.Errorf("header: %w", err)
	}

	numKeys, err := r.compactU16()
	if err != nil {
		return tx, fmt.Errorf("account keys: %w", err)
	}
	msg.AccountKeys = make([]domain.Pubkey, numKeys)
	for i := range msg.AccountKeys {
		if msg.AccountKeys[i], err = r.pubkey(); err != nil {
			return tx, fmt.Errorf("account key %d: %w", i, err)
		}
	}

	blockhash, err := r.readBytes(domain.HashSize)
	if err != nil {
		return tx, fmt.Errorf("recent blockhash: %w", err)
	}
	copy(msg.RecentBlockhash[:], blockhash)

	numIxs, err := r.compactU16()
	if err != nil {
		return tx, fmt.Errorf("instructions: %w", err)
	}
	msg.Instructions = make([]domain.CompiledInstruction, numIxs)
	for i := range msg.Instructions {
		ix := &msg.Instructions[i]
		if ix.ProgramIDIndex, err = r.readByte(); err != nil {
			return tx, fmt.Errorf("instruction %d: %w", i, err)
		}
		if ix.Accounts, err = r.byteVec(); err != nil {
			return tx, fmt.Errorf("instruction %d accounts: %w", i, err)
		}
		if ix.Data, err = r.byteVec(); err != nil {
			return tx, fmt.Errorf("instruction %d data: %w", i, err)
		}
	}

	if !msg.Version.Legacy {
		numLookups, err := r.compactU16()
		if err != nil {
			return tx, fmt.Errorf("address table lookups: %w", err)
		}
		msg.AddressTableLookups = make([]domain.AddressTableLookup, numLookups)
		for i := range msg.AddressTableLookups {
			l := &msg.AddressTableLookups[i]
			if l.AccountKey, err = r.pubkey(); err != nil {
				return tx, fmt.Errorf("lookup %d: %w", i, err)
			}
			if l.WritableIndexes, err = r.byteVec(); err != nil {
				return tx, fmt.Errorf("lookup %d writable: %w", i, err)
			}
			if l.ReadonlyIndexes, err = r.byteVec(); err != nil {
				return tx, fmt.Errorf("lookup %d readonly: %w", i, err)
			}
		}
	}

	if r.pos != len(r.buf) {
		return tx, fmt.Errorf("%d trailing bytes after transaction", len(r.buf)-r.pos)
	}
	return tx, nil
}
