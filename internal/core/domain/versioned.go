package domain

// VersionedBlock is the storage-ready form of a confirmed block.
type VersionedBlock struct {
	PreviousBlockhash Hash                           `cbor:"1,keyasint"`
	Blockhash         Hash                           `cbor:"2,keyasint"`
	ParentSlot        uint64                         `cbor:"3,keyasint"`
	Transactions      []VersionedTransactionWithMeta `cbor:"4,keyasint"`
	Rewards           []Reward                       `cbor:"5,keyasint"`
	NumPartitions     *uint64                        `cbor:"6,keyasint,omitempty"`
	BlockTime         *int64                         `cbor:"7,keyasint,omitempty"`
	BlockHeight       *uint64                        `cbor:"8,keyasint,omitempty"`
}

type VersionedBlockWithEntries struct {
	Block   VersionedBlock
	Entries []EntrySummary
}

type VersionedTransactionWithMeta struct {
	Transaction VersionedTransaction   `cbor:"1,keyasint"`
	Meta        *TransactionStatusMeta `cbor:"2,keyasint"`
}

// Signature returns the first signature, which identifies the transaction.
func (t VersionedTransactionWithMeta) Signature() (Signature, bool) {
	if len(t.Transaction.Signatures) == 0 {
		return Signature{}, false
	}
	return t.Transaction.Signatures[0], true
}

type VersionedTransaction struct {
	Signatures []Signature      `cbor:"1,keyasint"`
	Message    VersionedMessage `cbor:"2,keyasint"`
}

type VersionedMessage struct {
	Version             TransactionVersion    `cbor:"1,keyasint"`
	Header              MessageHeader         `cbor:"2,keyasint"`
	AccountKeys         []Pubkey              `cbor:"3,keyasint"`
	RecentBlockhash     Hash                  `cbor:"4,keyasint"`
	Instructions        []CompiledInstruction `cbor:"5,keyasint"`
	AddressTableLookups []AddressTableLookup  `cbor:"6,keyasint,omitempty"`
}

// ProgramID resolves the program invoked by an instruction against the
// static account keys. Program ids never come from lookup tables.
func (m VersionedMessage) ProgramID(ix CompiledInstruction) (Pubkey, bool) {
	if int(ix.ProgramIDIndex) >= len(m.AccountKeys) {
		return Pubkey{}, false
	}
	return m.AccountKeys[ix.ProgramIDIndex], true
}

type CompiledInstruction struct {
	ProgramIDIndex uint8   `cbor:"1,keyasint"`
	Accounts       []uint8 `cbor:"2,keyasint"`
	Data           []byte  `cbor:"3,keyasint"`
}

type AddressTableLookup struct {
	AccountKey      Pubkey  `cbor:"1,keyasint"`
	WritableIndexes []uint8 `cbor:"2,keyasint"`
	ReadonlyIndexes []uint8 `cbor:"3,keyasint"`
}
