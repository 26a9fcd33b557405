package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// Set of errors returned when building blocks.
var (
	ErrInvalidMemo        = errors.New("memo can only contain alphanumeric values (Aa - Zz, 0 - 9), space and an underscore (_)")
	ErrDuplicateRecipient = errors.New("more than one transaction has the same recipient")
)

var memoRegex = regexp.MustCompile(`^[a-zA-Z0-9_ ]*$`)

// ValidMemo reports if the memo only holds characters the network accepts.
func ValidMemo(memo string) bool {
	return memoRegex.MatchString(memo)
}

// BlockType contains the structure of supported block types.
type BlockType interface {
	blockType()
}

// CoinTransfer is the block type used to send coins to other accounts.
type CoinTransfer struct {
	BalanceKey string        `json:"balance_key"`
	Txs        []Transaction `json:"txs"`
}

func (CoinTransfer) blockType() {}

// NewCoinTransfer constructs a coin transfer block for the specified
// balance lock. The transactions are sorted by recipient so the block can be
// broadcasted on the network.
func NewCoinTransfer(balanceLock string, txs []Transaction) (CoinTransfer, error) {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Recipient < sorted[j].Recipient
	})

	for i, tx := range sorted {
		if !ValidMemo(tx.Memo) {
			return CoinTransfer{}, fmt.Errorf("recipient %s: %w", tx.Recipient, ErrInvalidMemo)
		}

		if i > 0 && sorted[i-1].Recipient == tx.Recipient {
			return CoinTransfer{}, fmt.Errorf("recipient %s: %w", tx.Recipient, ErrDuplicateRecipient)
		}
	}

	ct := CoinTransfer{
		BalanceKey: balanceLock,
		Txs:        sorted,
	}

	return ct, nil
}

// Total returns the sum of all the amounts in the block.
func (ct CoinTransfer) Total() uint64 {
	var total uint64
	for _, tx := range ct.Txs {
		total += tx.Amount
	}
	return total
}

// =============================================================================

// BlockMessage is the structure used to make a block request on the network.
type BlockMessage struct {
	AccountNumber string    `json:"account_number"`
	Message       BlockType `json:"message"`
	Signature     string    `json:"signature"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. Coin transfers
// are the only supported block type.
func (bm *BlockMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccountNumber string       `json:"account_number"`
		Message       CoinTransfer `json:"message"`
		Signature     string       `json:"signature"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	bm.AccountNumber = raw.AccountNumber
	bm.Message = raw.Message
	bm.Signature = raw.Signature

	return nil
}

// CoinTransfer returns the block body as a coin transfer.
func (bm BlockMessage) CoinTransfer() (CoinTransfer, bool) {
	ct, ok := bm.Message.(CoinTransfer)
	return ct, ok
}
