package convert

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/ingestor/internal/core/domain"
)

const zeroHash = "11111111111111111111111111111111"

func filled(n int, b byte) []byte {
	return bytes.Repeat([]byte{b}, n)
}

// wireTx serializes a one-signature, two-key, one-instruction transaction.
func wireTx(versioned bool) []byte {
	var buf bytes.Buffer
	buf.WriteByte(1)
	buf.Write(filled(64, 7))
	if versioned {
		buf.WriteByte(0x80)
	}
	buf.Write([]byte{1, 0, 1})
	buf.WriteByte(2)
	buf.Write(filled(32, 2))
	buf.Write(filled(32, 3))
	buf.Write(filled(32, 0))
	buf.WriteByte(1)
	buf.WriteByte(1)
	buf.Write([]byte{1, 0})
	buf.Write([]byte{2, 0xaa, 0xbb})
	if versioned {
		buf.WriteByte(1)
		buf.Write(filled(32, 4))
		buf.Write([]byte{1, 5})
		buf.Write([]byte{0})
	}
	return buf.Bytes()
}

func binaryTx(versioned bool) domain.EncodedTransactionWithMeta {
	tx := domain.EncodedTransactionWithMeta{
		Transaction: domain.EncodedTransaction{
			Encoding: domain.EncodingBase64,
			Data:     base64.StdEncoding.EncodeToString(wireTx(versioned)),
		},
		Meta: &domain.TransactionStatusMeta{Fee: 5000},
	}
	if versioned {
		tx.Version = &domain.TransactionVersion{Number: 0}
	}
	return tx
}

func jsonTx(version *domain.TransactionVersion) domain.EncodedTransactionWithMeta {
	return domain.EncodedTransactionWithMeta{
		Transaction: domain.EncodedTransaction{
			Encoding: domain.EncodingJSON,
			JSON: &domain.UiTransaction{
				Signatures: []string{base58.Encode(filled(64, 9))},
				Message: domain.UiMessage{
					Header:          domain.MessageHeader{NumRequiredSignatures: 1},
					AccountKeys:     []string{base58.Encode(filled(32, 1)), zeroHash},
					RecentBlockhash: zeroHash,
					Instructions: []domain.UiCompiledInstruction{
						{ProgramIDIndex: 1, Accounts: []int{0}, Data: base58.Encode([]byte{1, 2, 3})},
					},
				},
			},
		},
		Meta:    &domain.TransactionStatusMeta{Fee: 10},
		Version: version,
	}
}

func block(txs ...domain.EncodedTransactionWithMeta) domain.EncodedBlock {
	height := uint64(10)
	return domain.EncodedBlock{
		PreviousBlockhash: zeroHash,
		Blockhash:         base58.Encode(filled(32, 5)),
		ParentSlot:        41,
		Transactions:      txs,
		Rewards:           []domain.Reward{{Pubkey: zeroHash, Lamports: 100}},
		BlockHeight:       &height,
	}
}

func TestConvert_JSONTransaction(t *testing.T) {
	out, err := NewConverter(DefaultOptions()).Convert(block(jsonTx(nil)))
	require.NoError(t, err)

	assert.Equal(t, uint64(41), out.ParentSlot)
	assert.Equal(t, byte(5), out.Blockhash[0])
	require.Len(t, out.Transactions, 1)

	tx := out.Transactions[0]
	assert.True(t, tx.Transaction.Message.Version.Legacy)
	assert.Equal(t, byte(9), tx.Transaction.Signatures[0][63])
	assert.Len(t, tx.Transaction.Message.AccountKeys, 2)
	assert.Equal(t, []byte{1, 2, 3}, tx.Transaction.Message.Instructions[0].Data)
	assert.Equal(t, uint64(10), tx.Meta.Fee)
	assert.Len(t, out.Rewards, 1)
}

func TestConvert_BinaryTransactions(t *testing.T) {
	out, err := NewConverter(DefaultOptions()).Convert(block(binaryTx(false), binaryTx(true)))
	require.NoError(t, err)
	require.Len(t, out.Transactions, 2)

	legacy := out.Transactions[0].Transaction
	assert.True(t, legacy.Message.Version.Legacy)
	assert.Equal(t, uint8(1), legacy.Message.Header.NumReadonlyUnsignedAccounts)
	assert.Equal(t, []byte{0xaa, 0xbb}, legacy.Message.Instructions[0].Data)
	assert.Empty(t, legacy.Message.AddressTableLookups)

	v0 := out.Transactions[1].Transaction
	assert.False(t, v0.Message.Version.Legacy)
	require.Len(t, v0.Message.AddressTableLookups, 1)
	assert.Equal(t, []uint8{5}, v0.Message.AddressTableLookups[0].WritableIndexes)
}

func TestConvert_Base58Binary(t *testing.T) {
	tx := domain.EncodedTransactionWithMeta{
		Transaction: domain.EncodedTransaction{Encoding: domain.EncodingBase58, Data: base58.Encode(wireTx(false))},
		Meta:        &domain.TransactionStatusMeta{},
	}
	out, err := NewConverter(DefaultOptions()).Convert(block(tx))
	require.NoError(t, err)
	assert.Equal(t, byte(7), out.Transactions[0].Transaction.Signatures[0][0])
}

func TestConvert_VersionLimits(t *testing.T) {
	v1 := &domain.TransactionVersion{Number: 1}

	_, err := NewConverter(DefaultOptions()).Convert(block(jsonTx(v1)))
	assert.ErrorIs(t, err, ErrUnsupportedTransactionVersion)
	assert.Contains(t, err.Error(), "transaction 0")

	opts := DefaultOptions()
	opts.MaxSupportedTransactionVersion = nil
	_, err = NewConverter(opts).Convert(block(binaryTx(true)))
	assert.ErrorIs(t, err, ErrUnsupportedTransactionVersion)

	_, err = NewConverter(opts).Convert(block(binaryTx(false)))
	assert.NoError(t, err)
}

func TestConvert_MissingMeta(t *testing.T) {
	tx := jsonTx(nil)
	tx.Meta = nil

	_, err := NewConverter(DefaultOptions()).Convert(block(tx))
	assert.ErrorIs(t, err, ErrMissingTransactionMeta)

	opts := DefaultOptions()
	opts.AddEmptyTxMetadataIfMissing = true
	out, err := NewConverter(opts).Convert(block(tx))
	require.NoError(t, err)
	require.NotNil(t, out.Transactions[0].Meta)
	assert.False(t, out.Transactions[0].Meta.Failed())
}

func TestConvert_DetailLevels(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowRewards = false
	opts.TransactionDetails = TransactionDetailsSignatures

	out, err := NewConverter(opts).Convert(block(jsonTx(nil)))
	require.NoError(t, err)
	assert.Nil(t, out.Rewards)
	require.Len(t, out.Transactions, 1)
	assert.Len(t, out.Transactions[0].Transaction.Signatures, 1)
	assert.Empty(t, out.Transactions[0].Transaction.Message.AccountKeys)

	opts.TransactionDetails = TransactionDetailsNone
	out, err = NewConverter(opts).Convert(block(jsonTx(nil)))
	require.NoError(t, err)
	assert.Empty(t, out.Transactions)
}

func TestConvert_InvalidInput(t *testing.T) {
	b := block()
	b.Blockhash = "not-base58!"
	_, err := NewConverter(DefaultOptions()).Convert(b)
	assert.ErrorContains(t, err, "invalid blockhash")

	truncated := binaryTx(false)
	truncated.Transaction.Data = base64.StdEncoding.EncodeToString(wireTx(false)[:80])
	_, err = NewConverter(DefaultOptions()).Convert(block(truncated))
	assert.ErrorIs(t, err, errShortBuffer)

	_, err = NewConverter(DefaultOptions()).Convert(block(domain.EncodedTransactionWithMeta{}))
	assert.ErrorIs(t, err, ErrMissingTransaction)
}

func TestCompactU16(t *testing.T) {
	tests := []struct {
		in   []byte
		want int
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0xff, 0x03}, 65535},
	}
	for _, tt := range tests {
		r := &wireReader{buf: tt.in}
		got, err := r.compactU16()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
