package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// EncodedBlock is a confirmed block in its wire (JSON) form.
type EncodedBlock struct {
	PreviousBlockhash   string                       `json:"previousBlockhash"`
	Blockhash           string                       `json:"blockhash"`
	ParentSlot          uint64                       `json:"parentSlot"`
	Transactions        []EncodedTransactionWithMeta `json:"transactions"`
	Rewards             []Reward                     `json:"rewards"`
	NumRewardPartitions *uint64                      `json:"numRewardPartitions,omitempty"`
	BlockTime           *int64                       `json:"blockTime"`
	BlockHeight         *uint64                      `json:"blockHeight"`
}

type EncodedTransactionWithMeta struct {
	Transaction EncodedTransaction     `json:"transaction"`
	Meta        *TransactionStatusMeta `json:"meta"`
	Version     *TransactionVersion    `json:"version,omitempty"`
}

// TransactionEncoding names the wire form of an EncodedTransaction.
type TransactionEncoding string

const (
	EncodingBase58 TransactionEncoding = "base58"
	EncodingBase64 TransactionEncoding = "base64"
	EncodingJSON   TransactionEncoding = "json"
)

// EncodedTransaction holds one of three wire forms: a bare base58 string
// (legacy binary), a [data, encoding] pair, or a JSON transaction object.
type EncodedTransaction struct {
	Encoding TransactionEncoding
	Data     string
	JSON     *UiTransaction
}

func (t *EncodedTransaction) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		t.Encoding = EncodingBase58
		t.Data = s
	case '[':
		var pair []string
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("binary transaction must be [data, encoding], got %d elements", len(pair))
		}
		enc := TransactionEncoding(pair[1])
		if enc != EncodingBase58 && enc != EncodingBase64 {
			return fmt.Errorf("unsupported binary transaction encoding %q", pair[1])
		}
		t.Encoding = enc
		t.Data = pair[0]
	case '{':
		var ui UiTransaction
		if err := json.Unmarshal(trimmed, &ui); err != nil {
			return err
		}
		t.Encoding = EncodingJSON
		t.JSON = &ui
	default:
		return fmt.Errorf("unsupported transaction encoding: %s", trimmed)
	}
	return nil
}

func (t EncodedTransaction) MarshalJSON() ([]byte, error) {
	switch t.Encoding {
	case EncodingJSON:
		return json.Marshal(t.JSON)
	case EncodingBase58, EncodingBase64:
		return json.Marshal([2]string{t.Data, string(t.Encoding)})
	default:
		return []byte("null"), nil
	}
}

type UiTransaction struct {
	Signatures []string  `json:"signatures"`
	Message    UiMessage `json:"message"`
}

// UiMessage is the raw (non-parsed) JSON message form.
type UiMessage struct {
	Header              MessageHeader           `json:"header"`
	AccountKeys         []string                `json:"accountKeys"`
	RecentBlockhash     string                  `json:"recentBlockhash"`
	Instructions        []UiCompiledInstruction `json:"instructions"`
	AddressTableLookups []UiAddressTableLookup  `json:"addressTableLookups,omitempty"`
}

type MessageHeader struct {
	NumRequiredSignatures       uint8 `json:"numRequiredSignatures"`
	NumReadonlySignedAccounts   uint8 `json:"numReadonlySignedAccounts"`
	NumReadonlyUnsignedAccounts uint8 `json:"numReadonlyUnsignedAccounts"`
}

type UiCompiledInstruction struct {
	ProgramIDIndex uint8   `json:"programIdIndex"`
	Accounts       []int   `json:"accounts"`
	Data           string  `json:"data"`
	StackHeight    *uint32 `json:"stackHeight,omitempty"`
}

type UiAddressTableLookup struct {
	AccountKey      string `json:"accountKey"`
	WritableIndexes []int  `json:"writableIndexes"`
	ReadonlyIndexes []int  `json:"readonlyIndexes"`
}

// TransactionVersion is either "legacy" or a numeric version.
type TransactionVersion struct {
	Legacy bool
	Number uint8
}

func (v *TransactionVersion) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if bytes.Equal(trimmed, []byte(`"legacy"`)) {
		v.Legacy = true
		v.Number = 0
		return nil
	}
	n, err := strconv.ParseUint(string(trimmed), 10, 8)
	if err != nil {
		return fmt.Errorf("invalid transaction version %s", trimmed)
	}
	v.Legacy = false
	v.Number = uint8(n)
	return nil
}

func (v TransactionVersion) MarshalJSON() ([]byte, error) {
	if v.Legacy {
		return []byte(`"legacy"`), nil
	}
	return []byte(strconv.FormatUint(uint64(v.Number), 10)), nil
}

func (v TransactionVersion) String() string {
	if v.Legacy {
		return "legacy"
	}
	return strconv.FormatUint(uint64(v.Number), 10)
}

// TransactionStatusMeta is the execution status attached to a transaction.
type TransactionStatusMeta struct {
	Err                  any                 `json:"err"`
	Fee                  uint64              `json:"fee"`
	PreBalances          []uint64            `json:"preBalances"`
	PostBalances         []uint64            `json:"postBalances"`
	InnerInstructions    []InnerInstructions `json:"innerInstructions,omitempty"`
	LogMessages          []string            `json:"logMessages,omitempty"`
	PreTokenBalances     []TokenBalance      `json:"preTokenBalances,omitempty"`
	PostTokenBalances    []TokenBalance      `json:"postTokenBalances,omitempty"`
	Rewards              []Reward            `json:"rewards,omitempty"`
	LoadedAddresses      *LoadedAddresses    `json:"loadedAddresses,omitempty"`
	ReturnData           *ReturnData         `json:"returnData,omitempty"`
	ComputeUnitsConsumed *uint64             `json:"computeUnitsConsumed,omitempty"`
}

// Failed reports whether the transaction carries an execution error.
func (m *TransactionStatusMeta) Failed() bool {
	return m != nil && m.Err != nil
}

type InnerInstructions struct {
	Index        uint8                   `json:"index"`
	Instructions []UiCompiledInstruction `json:"instructions"`
}

type TokenBalance struct {
	AccountIndex  uint8         `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner,omitempty"`
	ProgramID     string        `json:"programId,omitempty"`
	UiTokenAmount UiTokenAmount `json:"uiTokenAmount"`
}

type UiTokenAmount struct {
	UiAmount       *float64 `json:"uiAmount"`
	Decimals       uint8    `json:"decimals"`
	Amount         string   `json:"amount"`
	UiAmountString string   `json:"uiAmountString"`
}

type LoadedAddresses struct {
	Writable []string `json:"writable"`
	Readonly []string `json:"readonly"`
}

type ReturnData struct {
	ProgramID string    `json:"programId"`
	Data      [2]string `json:"data"`
}

type Reward struct {
	Pubkey      string  `json:"pubkey"`
	Lamports    int64   `json:"lamports"`
	PostBalance uint64  `json:"postBalance"`
	RewardType  *string `json:"rewardType"`
	Commission  *uint8  `json:"commission"`
}
