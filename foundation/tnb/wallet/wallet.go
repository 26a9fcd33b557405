package wallet

import (
	"context"

	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
)

// Wallet sends transactions on behalf of a single account.
type Wallet struct {
	client  *Client
	account account.Account
}

// New constructs a wallet for the account that uses the bank at the url.
// Init must be called before sending transactions.
func New(acc account.Account, bankURL string, options ...nodes.Option) (*Wallet, error) {
	client, err := NewClient(bankURL, options...)
	if err != nil {
		return nil, err
	}

	w := Wallet{
		client:  client,
		account: acc,
	}

	return &w, nil
}

// Account returns the account that owns the wallet.
func (w *Wallet) Account() account.Account {
	return w.account
}

// Client returns the client used by the wallet.
func (w *Wallet) Client() *Client {
	return w.client
}

// Init retrieves the node configs needed to send transactions.
func (w *Wallet) Init(ctx context.Context) error {
	return w.client.UpdateConfig(ctx)
}

// SendTransaction sends a single transaction.
func (w *Wallet) SendTransaction(ctx context.Context, tx models.Transaction) (nodes.BlockResponse, error) {
	return w.client.SendTransactions(ctx, w.account, []models.Transaction{tx})
}

// SendTransactions sends up to MaxTransactions transactions in one block.
// Every transaction needs a different recipient.
func (w *Wallet) SendTransactions(ctx context.Context, txs []models.Transaction) (nodes.BlockResponse, error) {
	return w.client.SendTransactions(ctx, w.account, txs)
}

// Balance returns the number of coins held by the account. The bool is
// false when the network doesn't know the account yet.
func (w *Wallet) Balance(ctx context.Context) (uint64, bool, error) {
	return w.client.AccountBalance(ctx, w.account.AccountNumber())
}

// SwitchNode moves the wallet to a different bank and retrieves its configs.
func (w *Wallet) SwitchNode(ctx context.Context, bankURL string) error {
	if err := w.client.SwitchNode(bankURL); err != nil {
		return err
	}

	return w.Init(ctx)
}
