package wallet_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
	"github.com/ardanlabs/tnb/foundation/tnb/wallet"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// network fakes a bank and its primary validator.
type network struct {
	bank    *httptest.Server
	pv      *httptest.Server
	bankFee uint64
	pvFee   uint64
	lock    *string
	balance *uint64

	mu     sync.Mutex
	blocks []models.BlockMessage
}

func newNetwork(t *testing.T, bankFee uint64, pvFee uint64) *network {
	n := network{
		bankFee: bankFee,
		pvFee:   pvFee,
	}

	n.pv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/config":
			json.NewEncoder(w).Encode(nodes.ConfigResponse{
				AccountNumber:         "pv_account",
				NodeType:              models.PrimaryValidator,
				DefaultTransactionFee: n.pvFee,
			})
		case strings.HasSuffix(r.URL.Path, "/balance_lock"):
			n.mu.Lock()
			defer n.mu.Unlock()
			json.NewEncoder(w).Encode(nodes.AccountBalanceLockResponse{BalanceLock: n.lock})
		case strings.HasSuffix(r.URL.Path, "/balance"):
			n.mu.Lock()
			defer n.mu.Unlock()
			json.NewEncoder(w).Encode(nodes.AccountBalanceResponse{Balance: n.balance})
		default:
			http.NotFound(w, r)
		}
	}))

	n.bank = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/config":
			u, _ := url.Parse(n.pv.URL)
			port, _ := strconv.Atoi(u.Port())
			json.NewEncoder(w).Encode(nodes.ConfigResponse{
				AccountNumber:         "bank_account",
				NodeType:              models.Bank,
				DefaultTransactionFee: n.bankFee,
				PrimaryValidator: &nodes.PrimaryValidatorConfig{
					AccountNumber:         "pv_account",
					Protocol:              "http",
					IPAddress:             u.Hostname(),
					Port:                  uint16(port),
					DefaultTransactionFee: n.pvFee,
				},
			})
		case "/blocks":
			var bm models.BlockMessage
			if err := json.NewDecoder(r.Body).Decode(&bm); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if !account.VerifyBlockMessage(bm) {
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}

			n.mu.Lock()
			n.blocks = append(n.blocks, bm)
			n.mu.Unlock()

			ct, _ := bm.CoinTransfer()
			json.NewEncoder(w).Encode(nodes.BlockResponse{ID: "block", BalanceKey: ct.BalanceKey, Sender: bm.AccountNumber, Signature: bm.Signature})
		default:
			http.NotFound(w, r)
		}
	}))

	t.Cleanup(func() {
		n.bank.Close()
		n.pv.Close()
	})

	return &n
}

func (n *network) setLock(lock string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lock = &lock
}

func (n *network) setBalance(balance uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balance = &balance
}

func (n *network) lastBlock() models.CoinTransfer {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.blocks) == 0 {
		return models.CoinTransfer{}
	}
	ct, _ := n.blocks[len(n.blocks)-1].CoinTransfer()
	return ct
}

// =============================================================================

func Test_SendTransactions(t *testing.T) {
	net := newNetwork(t, 1, 2)
	ctx := context.Background()

	acc, err := account.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate an account: %s", failed, err)
	}

	t.Log("Given the need to send coins through a bank.")
	{
		w, err := wallet.New(acc, net.bank.URL)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the wallet: %s", failed, err)
		}

		if _, err := w.SendTransaction(ctx, models.NewTransaction("aa", 5)); !errors.Is(err, wallet.ErrNotInitialized) {
			t.Fatalf("\t%s\tShould not send before init: %v", failed, err)
		}
		t.Logf("\t%s\tShould not send before init.", success)

		if err := w.Init(ctx); err != nil {
			t.Fatalf("\t%s\tShould be able to init the wallet: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to init the wallet.", success)

		resp, err := w.SendTransaction(ctx, models.NewTransactionWithMemo("cc", 5, "for lunch"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to send a transaction: %s", failed, err)
		}

		if resp.BalanceKey != acc.AccountNumber() {
			t.Fatalf("\t%s\tShould use the account number when there is no lock: %s", failed, resp.BalanceKey)
		}
		t.Logf("\t%s\tShould use the account number when there is no lock.", success)

		ct := net.lastBlock()
		exp := []models.Transaction{
			{Amount: 1, Fee: models.Bank, Recipient: "bank_account"},
			{Amount: 5, Memo: "for lunch", Recipient: "cc"},
			{Amount: 2, Fee: models.PrimaryValidator, Recipient: "pv_account"},
		}
		if len(ct.Txs) != len(exp) {
			t.Fatalf("\t%s\tShould have the fees added: %+v", failed, ct.Txs)
		}
		for i := range exp {
			if ct.Txs[i] != exp[i] {
				t.Logf("\t%s\tgot: %+v", failed, ct.Txs[i])
				t.Logf("\t%s\texp: %+v", failed, exp[i])
				t.Fatalf("\t%s\tShould have the sorted transactions with fees.", failed)
			}
		}
		t.Logf("\t%s\tShould have the sorted transactions with fees.", success)

		lock := "abc123"
		net.setLock(lock)
		if _, err := w.SendTransaction(ctx, models.NewTransaction("cc", 5)); err != nil {
			t.Fatalf("\t%s\tShould be able to send a second transaction: %s", failed, err)
		}
		if got := net.lastBlock().BalanceKey; got != lock {
			t.Fatalf("\t%s\tShould use the balance lock, got %s.", failed, got)
		}
		t.Logf("\t%s\tShould use the balance lock from the primary validator.", success)
	}
}

func Test_SendTransactionsRules(t *testing.T) {
	net := newNetwork(t, 1, 1)
	ctx := context.Background()

	acc, err := account.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate an account: %s", failed, err)
	}

	w, err := wallet.New(acc, net.bank.URL)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the wallet: %s", failed, err)
	}

	if err := w.Init(ctx); err != nil {
		t.Fatalf("\t%s\tShould be able to init the wallet: %s", failed, err)
	}

	eleven := make([]models.Transaction, 11)
	for i := range eleven {
		eleven[i] = models.NewTransaction(strconv.Itoa(i), 1)
	}

	fee := models.NewTransaction("aa", 1)
	fee.Fee = models.Bank

	type table struct {
		name string
		txs  []models.Transaction
		err  error
	}

	tt := []table{
		{name: "empty", txs: nil, err: wallet.ErrNoTransactions},
		{name: "too-many", txs: eleven, err: wallet.ErrTooManyTransactions},
		{name: "duplicate", txs: []models.Transaction{models.NewTransaction("aa", 1), models.NewTransaction("aa", 2)}, err: wallet.ErrDuplicateRecipient},
		{name: "user-fee", txs: []models.Transaction{fee}, err: wallet.ErrFeeNotAllowed},
		{name: "bad-memo", txs: []models.Transaction{models.NewTransactionWithMemo("aa", 1, "no!")}, err: models.ErrInvalidMemo},
		{name: "fee-account", txs: []models.Transaction{models.NewTransaction("bank_account", 1)}, err: models.ErrDuplicateRecipient},
	}

	t.Log("Given the need to reject invalid transactions.")
	{
		for _, tst := range tt {
			f := func(t *testing.T) {
				_, err := w.SendTransactions(ctx, tst.txs)
				if !errors.Is(err, tst.err) {
					t.Fatalf("\t%s\tTest %s:\tShould get back %v, got %v.", failed, tst.name, tst.err, err)
				}
				t.Logf("\t%s\tTest %s:\tShould get back the expected error.", success, tst.name)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ZeroFees(t *testing.T) {
	net := newNetwork(t, 0, 3)
	ctx := context.Background()

	acc, err := account.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate an account: %s", failed, err)
	}

	w, err := wallet.New(acc, net.bank.URL)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the wallet: %s", failed, err)
	}

	if err := w.Init(ctx); err != nil {
		t.Fatalf("\t%s\tShould be able to init the wallet: %s", failed, err)
	}

	if _, err := w.SendTransaction(ctx, models.NewTransaction("aa", 1)); err != nil {
		t.Fatalf("\t%s\tShould be able to send: %s", failed, err)
	}

	for _, tx := range net.lastBlock().Txs {
		if tx.Fee == models.Bank {
			t.Fatalf("\t%s\tShould skip a bank fee of zero.", failed)
		}
	}
	t.Logf("\t%s\tShould skip a bank fee of zero.", success)
}

func Test_Balance(t *testing.T) {
	net := newNetwork(t, 1, 1)
	ctx := context.Background()

	acc, err := account.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate an account: %s", failed, err)
	}

	w, err := wallet.New(acc, net.bank.URL)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the wallet: %s", failed, err)
	}

	if err := w.Init(ctx); err != nil {
		t.Fatalf("\t%s\tShould be able to init the wallet: %s", failed, err)
	}

	t.Log("Given the need to read an account balance.")
	{
		if _, found, err := w.Balance(ctx); err != nil || found {
			t.Fatalf("\t%s\tShould not find an unknown account: %v %v", failed, found, err)
		}
		t.Logf("\t%s\tShould not find an unknown account.", success)

		net.setBalance(77)

		got, found, err := w.Balance(ctx)
		if err != nil || !found || got != 77 {
			t.Fatalf("\t%s\tShould get back the balance: %d %v %v", failed, got, found, err)
		}
		t.Logf("\t%s\tShould get back the balance.", success)
	}

	t.Log("Given the need to switch banks.")
	{
		other := newNetwork(t, 4, 4)
		if err := w.SwitchNode(ctx, other.bank.URL); err != nil {
			t.Fatalf("\t%s\tShould be able to switch banks: %s", failed, err)
		}

		if _, err := w.SendTransaction(ctx, models.NewTransaction("aa", 1)); err != nil {
			t.Fatalf("\t%s\tShould be able to send through the new bank: %s", failed, err)
		}

		if len(other.lastBlock().Txs) != 3 || len(net.lastBlock().Txs) != 0 {
			t.Fatalf("\t%s\tShould send blocks to the new bank.", failed)
		}
		t.Logf("\t%s\tShould send blocks to the new bank.", success)
	}
}
