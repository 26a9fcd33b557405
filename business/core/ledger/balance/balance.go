// Package balance maintains account balances, balance locks and trust in
// memory.
package balance

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ardanlabs/tnb/foundation/tnb/models"
)

// Set of errors returned when applying blocks.
var (
	ErrInvalidBalanceKey   = errors.New("balance key does not match the balance lock")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Info is what the sheet knows about an account.
type Info struct {
	Balance     uint64
	BalanceLock string
	Trust       int32
}

// Sheet represents the data representation to maintain account balances.
type Sheet struct {
	sheet map[string]Info
	mu    sync.RWMutex
}

// NewSheet constructs a new balance sheet for use, expects a starting
// balance sheet usually from a genesis file.
func NewSheet(balances map[string]uint64) *Sheet {
	bs := Sheet{
		sheet: make(map[string]Info),
	}

	if balances != nil {
		bs.Reset(balances)
	}

	return &bs
}

// Reset takes the specified balances and resets the sheet. Every account
// starts with its own account number as the balance lock.
func (bs *Sheet) Reset(balances map[string]uint64) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.sheet = make(map[string]Info)
	for accountNumber, value := range balances {
		bs.sheet[accountNumber] = Info{
			Balance:     value,
			BalanceLock: accountNumber,
		}
	}
}

// Clone makes a copy of the current balance sheet.
func (bs *Sheet) Clone() *Sheet {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	clone := NewSheet(nil)
	for accountNumber, info := range bs.sheet {
		clone.sheet[accountNumber] = info
	}
	return clone
}

// Copy makes a copy of the current balance sheet but returns the raw data.
func (bs *Sheet) Copy() map[string]Info {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	sheet := make(map[string]Info, len(bs.sheet))
	for accountNumber, info := range bs.sheet {
		sheet[accountNumber] = info
	}
	return sheet
}

// Account returns the information for the account. The bool is false when
// the account has never been seen.
func (bs *Sheet) Account(accountNumber string) (Info, bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	info, exists := bs.sheet[accountNumber]
	return info, exists
}

// BalanceLock returns the lock the account's next block must use as its
// balance key.
func (bs *Sheet) BalanceLock(accountNumber string) string {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	return bs.lock(accountNumber)
}

// ApplyValue gives the specified account the specified value.
func (bs *Sheet) ApplyValue(accountNumber string, value uint64) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	info := bs.info(accountNumber)
	info.Balance += value
	bs.sheet[accountNumber] = info
}

// SetTrust changes the trust of the account.
func (bs *Sheet) SetTrust(accountNumber string, trust int32) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	info := bs.info(accountNumber)
	info.Trust = trust
	bs.sheet[accountNumber] = info
}

// ApplyBlock performs the business logic for applying a coin transfer from
// the sender. The sender's balance lock is replaced by the new lock.
func (bs *Sheet) ApplyBlock(sender string, block models.CoinTransfer, newLock string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if block.BalanceKey != bs.lock(sender) {
		return ErrInvalidBalanceKey
	}

	var total uint64
	for _, tx := range block.Txs {
		if tx.Amount > math.MaxUint64-total {
			return fmt.Errorf("block total overflows: %w", ErrInsufficientBalance)
		}
		total += tx.Amount
	}

	from := bs.info(sender)
	if total > from.Balance {
		return fmt.Errorf("%s has %d, needs %d: %w", sender, from.Balance, total, ErrInsufficientBalance)
	}

	from.Balance -= total
	from.BalanceLock = newLock
	bs.sheet[sender] = from

	for _, tx := range block.Txs {
		to := bs.info(tx.Recipient)
		to.Balance += tx.Amount
		bs.sheet[tx.Recipient] = to
	}

	return nil
}

// =============================================================================

func (bs *Sheet) info(accountNumber string) Info {
	info, exists := bs.sheet[accountNumber]
	if !exists {
		info.BalanceLock = accountNumber
	}
	return info
}

func (bs *Sheet) lock(accountNumber string) string {
	info, exists := bs.sheet[accountNumber]
	if !exists || info.BalanceLock == "" {
		return accountNumber
	}
	return info.BalanceLock
}
