package decoder

import (
	"fmt"

	"github.com/vietddude/ingestor/internal/core/domain"
)

// rawEntrySummary accepts both snake_case and camelCase field names.
type rawEntrySummary struct {
	NumHashes                   *uint64 `json:"num_hashes"`
	NumHashesAlt                *uint64 `json:"numHashes"`
	Hash                        *string `json:"hash"`
	NumTransactions             *uint64 `json:"num_transactions"`
	NumTransactionsAlt          *uint64 `json:"numTransactions"`
	StartingTransactionIndex    *uint64 `json:"starting_transaction_index"`
	StartingTransactionIndexAlt *uint64 `json:"startingTransactionIndex"`
}

func pick(primary, alt *uint64, field string) (uint64, error) {
	switch {
	case primary != nil:
		return *primary, nil
	case alt != nil:
		return *alt, nil
	default:
		return 0, fmt.Errorf("missing field `%s`", field)
	}
}

// ParseEntrySummary decodes a single entry summary object.
func ParseEntrySummary(value any) (domain.EntrySummary, error) {
	var raw rawEntrySummary
	if err := FromValue(value, "EntrySummary", &raw); err != nil {
		return domain.EntrySummary{}, err
	}

	numHashes, err := pick(raw.NumHashes, raw.NumHashesAlt, "num_hashes")
	if err != nil {
		return domain.EntrySummary{}, err
	}
	numTxs, err := pick(raw.NumTransactions, raw.NumTransactionsAlt, "num_transactions")
	if err != nil {
		return domain.EntrySummary{}, err
	}
	start, err := pick(raw.StartingTransactionIndex, raw.StartingTransactionIndexAlt, "starting_transaction_index")
	if err != nil {
		return domain.EntrySummary{}, err
	}
	if raw.Hash == nil {
		return domain.EntrySummary{}, fmt.Errorf("missing field `hash`")
	}
	hash, err := domain.ParseHash(*raw.Hash)
	if err != nil {
		return domain.EntrySummary{}, fmt.Errorf("invalid entry hash: %w", err)
	}

	return domain.EntrySummary{
		NumHashes:                numHashes,
		Hash:                     hash,
		NumTransactions:          numTxs,
		StartingTransactionIndex: start,
	}, nil
}

// ParseEntries normalizes the accepted entries shapes into a slice:
// null, an array of summaries, an object wrapping "entries", or a single
// summary object.
func ParseEntries(value any) ([]domain.EntrySummary, error) {
	switch v := value.(type) {
	case nil:
		return []domain.EntrySummary{}, nil
	case []any:
		entries := make([]domain.EntrySummary, 0, len(v))
		for i, item := range v {
			entry, err := ParseEntrySummary(item)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			entries = append(entries, entry)
		}
		return entries, nil
	case map[string]any:
		if inner, ok := v["entries"]; ok {
			return ParseEntries(inner)
		}
		entry, err := ParseEntrySummary(v)
		if err != nil {
			return nil, err
		}
		return []domain.EntrySummary{entry}, nil
	default:
		return nil, ErrInvalidEntries
	}
}
