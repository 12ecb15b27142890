package domain

// EntrySummary describes one PoH entry of a block.
type EntrySummary struct {
	NumHashes                uint64 `json:"num_hashes"`
	Hash                     Hash   `json:"hash"`
	NumTransactions          uint64 `json:"num_transactions"`
	StartingTransactionIndex uint64 `json:"starting_transaction_index"`
}
