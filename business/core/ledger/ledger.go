// Package ledger is the core business API of the development node. It
// verifies blocks the way the network does and keeps balances, balance
// locks and trust for every account.
package ledger

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ardanlabs/tnb/business/core/ledger/balance"
	"github.com/ardanlabs/tnb/business/core/ledger/db"
	"github.com/ardanlabs/tnb/business/core/ledger/genesis"
	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// MaxAmount is the largest amount a single transaction can move. The store
// keeps amounts in a signed integer column.
const MaxAmount = math.MaxInt64

// Set of errors returned by the ledger.
var (
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidBlock        = errors.New("invalid block")
	ErrInvalidBalanceKey   = balance.ErrInvalidBalanceKey
	ErrInsufficientBalance = balance.ErrInsufficientBalance
	ErrMissingFee          = errors.New("missing or insufficient fee")
	ErrNotAuthorized       = errors.New("signer is not authorized")
	ErrInvalidTrust        = errors.New("invalid trust")
)

// Storer declares the behavior the ledger needs to persist blocks.
type Storer interface {
	SaveBlock(ctx context.Context, blk db.Block) error
	Blocks(ctx context.Context) ([]db.Block, error)
	QueryTransactions(ctx context.Context, filter db.Filter) ([]db.TransactionRecord, uint64, error)
	SaveTrust(ctx context.Context, accountNumber string, trust int32) error
	Trusts(ctx context.Context) (map[string]int32, error)
}

// EventHandler defines a function that is called when events occur in
// the processing of blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the ledger.
type Config struct {
	Genesis            genesis.Genesis
	Storer             Storer
	BankNodeIdentifier string
	EvHandler          EventHandler
}

// Ledger manages the accounts of the development network.
type Ledger struct {
	genesis            genesis.Genesis
	storer             Storer
	bankNodeIdentifier string
	evHandler          EventHandler

	mu    sync.RWMutex
	sheet *balance.Sheet
}

// New constructs a ledger and replays the stored blocks on top of the
// genesis balances.
func New(ctx context.Context, cfg Config) (*Ledger, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	l := Ledger{
		genesis:            cfg.Genesis,
		storer:             cfg.Storer,
		bankNodeIdentifier: cfg.BankNodeIdentifier,
		evHandler:          ev,
		sheet:              balance.NewSheet(cfg.Genesis.Balances),
	}

	blocks, err := l.storer.Blocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading blocks: %w", err)
	}

	for _, blk := range blocks {
		bm := toBlockMessage(blk)
		ct, _ := bm.CoinTransfer()

		lock, err := BalanceLock(bm)
		if err != nil {
			return nil, err
		}

		if err := l.sheet.ApplyBlock(blk.Sender, ct, lock); err != nil {
			return nil, fmt.Errorf("replaying block %s: %w", blk.ID, err)
		}
	}

	trusts, err := l.storer.Trusts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading trust: %w", err)
	}

	for accountNumber, trust := range trusts {
		l.sheet.SetTrust(accountNumber, trust)
	}

	ev("ledger: New: replayed %d blocks", len(blocks))

	return &l, nil
}

// Genesis returns the genesis the ledger started from.
func (l *Ledger) Genesis() genesis.Genesis {
	return l.genesis
}

// AddBlock verifies the block message and applies it to the balances. The
// stored block is returned.
func (l *Ledger) AddBlock(ctx context.Context, bm models.BlockMessage) (db.Block, error) {
	ct, ok := bm.CoinTransfer()
	if !ok {
		return db.Block{}, fmt.Errorf("unsupported block type: %w", ErrInvalidBlock)
	}

	if !account.VerifyBlockMessage(bm) {
		return db.Block{}, ErrInvalidSignature
	}

	if err := l.checkBlock(ct); err != nil {
		return db.Block{}, err
	}

	lock, err := BalanceLock(bm)
	if err != nil {
		return db.Block{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Apply to a clone so a failed write leaves the balances untouched.
	sheet := l.sheet.Clone()
	if err := sheet.ApplyBlock(bm.AccountNumber, ct, lock); err != nil {
		return db.Block{}, err
	}

	now := time.Now().UTC()
	blk := db.Block{
		ID:           uuid.NewString(),
		CreatedDate:  now,
		ModifiedDate: now,
		BalanceKey:   ct.BalanceKey,
		Sender:       bm.AccountNumber,
		Signature:    bm.Signature,
		Txs:          make([]db.Transaction, len(ct.Txs)),
	}

	for i, tx := range ct.Txs {
		blk.Txs[i] = db.Transaction{
			ID:        uuid.NewString(),
			BlockID:   blk.ID,
			Amount:    tx.Amount,
			Recipient: tx.Recipient,
			Fee:       tx.Fee.String(),
			Memo:      tx.Memo,
		}
	}

	if err := l.storer.SaveBlock(ctx, blk); err != nil {
		return db.Block{}, fmt.Errorf("saving block: %w", err)
	}

	l.sheet = sheet

	l.evHandler("ledger: AddBlock: sender[%s] txs[%d] total[%d] block[%s]", bm.AccountNumber, len(ct.Txs), ct.Total(), blk.ID)

	return blk, nil
}

// UpdateTrust changes the trust of the account. The message must be signed
// by the bank's node identifier.
func (l *Ledger) UpdateTrust(ctx context.Context, accountNumber string, sm models.SignedMessage) error {
	if sm.NodeIdentifier != l.bankNodeIdentifier {
		return ErrNotAuthorized
	}

	if !account.VerifySignedMessage(sm) {
		return ErrInvalidSignature
	}

	uat, ok := sm.Message.(models.UpdateAccountTrust)
	if !ok {
		return fmt.Errorf("unsupported message: %w", ErrInvalidTrust)
	}

	if err := uat.Validate(); err != nil {
		return fmt.Errorf("%s: %w", err, ErrInvalidTrust)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.storer.SaveTrust(ctx, accountNumber, uat.Trust); err != nil {
		return err
	}

	l.sheet.SetTrust(accountNumber, uat.Trust)

	l.evHandler("ledger: UpdateTrust: account[%s] trust[%d]", accountNumber, uat.Trust)

	return nil
}

// Balance returns the coins held by the account. The bool is false when
// the account has never been seen.
func (l *Ledger) Balance(accountNumber string) (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	info, exists := l.sheet.Account(accountNumber)
	return info.Balance, exists
}

// BalanceLock returns the balance key the account's next block must use.
// The bool is false when the account has never been seen.
func (l *Ledger) BalanceLock(accountNumber string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, exists := l.sheet.Account(accountNumber); !exists {
		return "", false
	}
	return l.sheet.BalanceLock(accountNumber), true
}

// Account returns everything the ledger knows about the account.
func (l *Ledger) Account(accountNumber string) (balance.Info, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.sheet.Account(accountNumber)
}

// Accounts returns a copy of every account known by the ledger.
func (l *Ledger) Accounts() map[string]balance.Info {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.sheet.Copy()
}

// QueryTransactions returns a page of stored transactions. A missing limit
// returns the largest page.
func (l *Ledger) QueryTransactions(ctx context.Context, filter db.Filter) ([]db.TransactionRecord, uint64, error) {
	switch {
	case filter.Limit < models.MinLimit:
		filter.Limit = models.MaxLimit
	case filter.Limit > models.MaxLimit:
		filter.Limit = models.MaxLimit
	}

	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return l.storer.QueryTransactions(ctx, filter)
}

// =============================================================================

// checkBlock validates the transactions and makes sure both network fees
// are paid.
func (l *Ledger) checkBlock(ct models.CoinTransfer) error {
	if len(ct.Txs) == 0 {
		return fmt.Errorf("no transactions: %w", ErrInvalidBlock)
	}

	seen := make(map[string]struct{}, len(ct.Txs))
	fees := make(map[models.NodeType]models.Transaction)

	for _, tx := range ct.Txs {
		if tx.Amount > MaxAmount {
			return fmt.Errorf("recipient %s: amount %d above %d: %w", tx.Recipient, tx.Amount, uint64(MaxAmount), ErrInvalidBlock)
		}

		if !models.ValidMemo(tx.Memo) {
			return fmt.Errorf("recipient %s: %s: %w", tx.Recipient, models.ErrInvalidMemo, ErrInvalidBlock)
		}

		if _, exists := seen[tx.Recipient]; exists {
			return fmt.Errorf("recipient %s: %s: %w", tx.Recipient, models.ErrDuplicateRecipient, ErrInvalidBlock)
		}
		seen[tx.Recipient] = struct{}{}

		switch tx.Fee {
		case "":
		case models.Bank, models.PrimaryValidator:
			fees[tx.Fee] = tx
		default:
			return fmt.Errorf("recipient %s: unknown fee %q: %w", tx.Recipient, tx.Fee, ErrInvalidBlock)
		}
	}

	required := []struct {
		nodeType models.NodeType
		node     genesis.Node
	}{
		{models.Bank, l.genesis.Bank},
		{models.PrimaryValidator, l.genesis.PrimaryValidator},
	}

	for _, req := range required {
		if req.node.DefaultTransactionFee == 0 {
			continue
		}

		tx, exists := fees[req.nodeType]
		if !exists || tx.Recipient != req.node.AccountNumber || tx.Amount < req.node.DefaultTransactionFee {
			return fmt.Errorf("%s fee of %d to %s: %w", req.nodeType, req.node.DefaultTransactionFee, req.node.AccountNumber, ErrMissingFee)
		}
	}

	return nil
}

// BalanceLock calculates the lock the sender's next block must use, the
// SHA3-256 of the block message.
func BalanceLock(bm models.BlockMessage) (string, error) {
	data, err := models.Canonical(bm)
	if err != nil {
		return "", fmt.Errorf("encoding block message: %w", err)
	}

	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func toBlockMessage(blk db.Block) models.BlockMessage {
	txs := make([]models.Transaction, len(blk.Txs))
	for i, tx := range blk.Txs {
		txs[i] = models.Transaction{
			Amount:    tx.Amount,
			Fee:       models.NodeType(tx.Fee),
			Memo:      tx.Memo,
			Recipient: tx.Recipient,
		}
	}

	return models.BlockMessage{
		AccountNumber: blk.Sender,
		Message: models.CoinTransfer{
			BalanceKey: blk.BalanceKey,
			Txs:        txs,
		},
		Signature: blk.Signature,
	}
}
