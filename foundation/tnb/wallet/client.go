// Package wallet provides support for sending coins on the network. The
// Client takes care of the bank and primary validator fees that need to be
// paid with every block.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
)

// MaxTransactions is the max number of transactions, fees not included,
// that can be sent in a single block.
const MaxTransactions = 10

// Set of errors returned when sending transactions.
var (
	ErrNotInitialized      = errors.New("node configs have not been retrieved")
	ErrNoTransactions      = errors.New("no transactions to send")
	ErrTooManyTransactions = fmt.Errorf("can't send more than %d transactions at once", MaxTransactions)
	ErrDuplicateRecipient  = models.ErrDuplicateRecipient
	ErrFeeNotAllowed       = errors.New("fees are added by the wallet")
)

// Client sends blocks through a bank and reads balances from the bank's
// primary validator.
type Client struct {
	mu       sync.RWMutex
	node     *nodes.RegularNode
	pv       *nodes.PrimaryValidator
	nodeCfg  *nodes.ConfigResponse
	pvCfg    *nodes.ConfigResponse
	nodeOpts []nodes.Option
}

// NewClient constructs a client for the bank at the url.
func NewClient(bankURL string, options ...nodes.Option) (*Client, error) {
	node, err := nodes.NewRegularNode(bankURL, options...)
	if err != nil {
		return nil, err
	}

	c := Client{
		node:     node,
		nodeOpts: options,
	}

	return &c, nil
}

// Node returns the bank used by the client.
func (c *Client) Node() *nodes.RegularNode {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.node
}

// UpdateConfig retrieves the configs of the bank and its primary
// validator. The primary validator is resolved from the bank the first
// time it's called.
func (c *Client) UpdateConfig(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pv == nil {
		pv, err := c.node.PrimaryValidator(ctx)
		if err != nil {
			return fmt.Errorf("resolving primary validator: %w", err)
		}
		c.pv = pv
	}

	pvCfg, err := c.pv.Config(ctx)
	if err != nil {
		return fmt.Errorf("primary validator config: %w", err)
	}

	nodeCfg, err := c.node.Config(ctx)
	if err != nil {
		return fmt.Errorf("bank config: %w", err)
	}

	c.pvCfg = &pvCfg
	c.nodeCfg = &nodeCfg

	return nil
}

// SwitchNode replaces the bank and forgets the primary validator. The
// configs need to be updated before sending more transactions.
func (c *Client) SwitchNode(bankURL string) error {
	node, err := nodes.NewRegularNode(bankURL, c.nodeOpts...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.node = node
	c.pv = nil
	c.nodeCfg = nil
	c.pvCfg = nil

	return nil
}

// SendTransactions builds a coin transfer block with the transactions and
// the network fees, signs it with the account and sends it to the bank.
func (c *Client) SendTransactions(ctx context.Context, acc account.Account, txs []models.Transaction) (nodes.BlockResponse, error) {
	c.mu.RLock()
	node, pv, nodeCfg, pvCfg := c.node, c.pv, c.nodeCfg, c.pvCfg
	c.mu.RUnlock()

	if pv == nil || nodeCfg == nil || pvCfg == nil {
		return nodes.BlockResponse{}, ErrNotInitialized
	}

	if err := checkTransactions(txs); err != nil {
		return nodes.BlockResponse{}, err
	}

	lock, err := pv.AccountBalanceLock(ctx, acc.AccountNumber())
	if err != nil {
		return nodes.BlockResponse{}, fmt.Errorf("balance lock: %w", err)
	}

	balanceLock := acc.AccountNumber()
	if lock.BalanceLock != nil {
		balanceLock = *lock.BalanceLock
	}

	all := make([]models.Transaction, 0, len(txs)+2)
	all = append(all, txs...)
	all = appendFee(all, models.Bank, nodeCfg)
	all = appendFee(all, models.PrimaryValidator, pvCfg)

	block, err := models.NewCoinTransfer(balanceLock, all)
	if err != nil {
		return nodes.BlockResponse{}, err
	}

	return node.AddBlocks(ctx, block, acc)
}

// AccountBalance asks the primary validator for the number of coins held
// by the account. The bool is false when the account is unknown.
func (c *Client) AccountBalance(ctx context.Context, accountNumber string) (uint64, bool, error) {
	c.mu.RLock()
	pv := c.pv
	c.mu.RUnlock()

	if pv == nil {
		return 0, false, ErrNotInitialized
	}

	resp, err := pv.AccountBalance(ctx, accountNumber)
	if err != nil {
		return 0, false, err
	}

	if resp.Balance == nil {
		return 0, false, nil
	}

	return *resp.Balance, true, nil
}

// =============================================================================

func checkTransactions(txs []models.Transaction) error {
	switch {
	case len(txs) == 0:
		return ErrNoTransactions
	case len(txs) > MaxTransactions:
		return ErrTooManyTransactions
	}

	seen := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if tx.IsFee() {
			return fmt.Errorf("recipient %s: %w", tx.Recipient, ErrFeeNotAllowed)
		}

		if _, exists := seen[tx.Recipient]; exists {
			return fmt.Errorf("recipient %s: %w", tx.Recipient, ErrDuplicateRecipient)
		}
		seen[tx.Recipient] = struct{}{}
	}

	return nil
}

func appendFee(txs []models.Transaction, nodeType models.NodeType, cfg *nodes.ConfigResponse) []models.Transaction {
	if cfg.DefaultTransactionFee == 0 {
		return txs
	}

	tx := models.NewTransaction(cfg.AccountNumber, cfg.DefaultTransactionFee)
	tx.Fee = nodeType

	return append(txs, tx)
}
