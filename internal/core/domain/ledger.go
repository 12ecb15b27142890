package domain

import "time"

// StoredBlock summarizes an uploaded block.
type StoredBlock struct {
	Slot        uint64
	Blockhash   string
	ParentSlot  uint64
	BlockTime   *int64
	BlockHeight *uint64
	TxCount     int
	UploadedAt  time.Time
}

// StoredTransaction is the signature index row of a transaction.
type StoredTransaction struct {
	Signature string
	Slot      uint64
	Index     int
	Err       string
	Fee       uint64
	IsVote    bool
}

// AddressSignature links an account address to a transaction signature.
type AddressSignature struct {
	Address   string
	Signature string
	Slot      uint64
	Index     int
}
