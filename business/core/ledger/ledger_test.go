package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ardanlabs/tnb/business/core/ledger"
	"github.com/ardanlabs/tnb/business/core/ledger/db"
	"github.com/ardanlabs/tnb/business/core/ledger/genesis"
	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type fixture struct {
	path  string
	gen   genesis.Genesis
	alice account.Account
	bob   account.Account
	bank  account.Account
	pv    account.Account

	mu     sync.Mutex
	events []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	accs := make([]account.Account, 4)
	for i := range accs {
		acc, err := account.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate an account: %s", failed, err)
		}
		accs[i] = acc
	}

	f := fixture{
		path:  filepath.Join(t.TempDir(), "blocks.db"),
		alice: accs[0],
		bob:   accs[1],
		bank:  accs[2],
		pv:    accs[3],
	}

	f.gen = genesis.Genesis{
		Bank:             genesis.Node{AccountNumber: f.bank.AccountNumber(), DefaultTransactionFee: 1},
		PrimaryValidator: genesis.Node{AccountNumber: f.pv.AccountNumber(), DefaultTransactionFee: 2},
		Balances:         map[string]uint64{f.alice.AccountNumber(): 1000},
	}

	return &f
}

func (f *fixture) open(t *testing.T) *ledger.Ledger {
	t.Helper()

	store, err := db.Open(f.path)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open the store: %s", failed, err)
	}
	t.Cleanup(func() { store.Close() })

	l, err := ledger.New(context.Background(), ledger.Config{
		Genesis:            f.gen,
		Storer:             store,
		BankNodeIdentifier: f.bank.AccountNumber(),
		EvHandler: func(v string, args ...any) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.events = append(f.events, fmt.Sprintf(v, args...))
		},
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the ledger: %s", failed, err)
	}

	return l
}

func (f *fixture) block(t *testing.T, from account.Account, key string, amount uint64, bankFee uint64, pvFee uint64) models.BlockMessage {
	t.Helper()

	txs := []models.Transaction{models.NewTransactionWithMemo(f.bob.AccountNumber(), amount, "hello")}
	if bankFee > 0 {
		txs = append(txs, models.Transaction{Amount: bankFee, Fee: models.Bank, Recipient: f.bank.AccountNumber()})
	}
	if pvFee > 0 {
		txs = append(txs, models.Transaction{Amount: pvFee, Fee: models.PrimaryValidator, Recipient: f.pv.AccountNumber()})
	}

	ct, err := models.NewCoinTransfer(key, txs)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the block: %s", failed, err)
	}

	bm, err := from.CreateBlockMessage(ct)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the block: %s", failed, err)
	}

	return bm
}

// =============================================================================

func Test_AddBlock(t *testing.T) {
	f := newFixture(t)
	l := f.open(t)
	ctx := context.Background()
	alice := f.alice.AccountNumber()

	t.Log("Given the need to accept a valid block.")
	{
		lock, exists := l.BalanceLock(alice)
		if !exists || lock != alice {
			t.Fatalf("\t%s\tShould start with the account number as the lock: %s", failed, lock)
		}
		t.Logf("\t%s\tShould start with the account number as the lock.", success)

		bm := f.block(t, f.alice, lock, 100, 1, 2)
		blk, err := l.AddBlock(ctx, bm)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to add the block: %s", failed, err)
		}
		if len(blk.Txs) != 3 || blk.Sender != alice {
			t.Fatalf("\t%s\tShould get back the stored block: %+v", failed, blk)
		}
		t.Logf("\t%s\tShould be able to add the block.", success)

		exp, _ := ledger.BalanceLock(bm)
		if got, _ := l.BalanceLock(alice); got != exp {
			t.Fatalf("\t%s\tShould move the lock to the block hash: %s", failed, got)
		}
		t.Logf("\t%s\tShould move the lock to the block hash.", success)

		balances := map[string]uint64{
			alice:                  897,
			f.bob.AccountNumber():  100,
			f.bank.AccountNumber(): 1,
			f.pv.AccountNumber():   2,
		}
		for acct, want := range balances {
			if got, _ := l.Balance(acct); got != want {
				t.Fatalf("\t%s\tShould have balance %d for %s, got %d.", failed, want, acct, got)
			}
		}
		t.Logf("\t%s\tShould have the correct balances.", success)

		if _, exists := l.Balance("unknown"); exists {
			t.Fatalf("\t%s\tShould not know an unseen account.", failed)
		}
		t.Logf("\t%s\tShould not know an unseen account.", success)
	}

	t.Log("Given the need to replay the stored blocks.")
	{
		replay := f.open(t)

		if got, _ := replay.Balance(alice); got != 897 {
			t.Fatalf("\t%s\tShould rebuild the balances, got %d.", failed, got)
		}

		want, _ := l.BalanceLock(alice)
		if got, _ := replay.BalanceLock(alice); got != want {
			t.Fatalf("\t%s\tShould rebuild the balance lock: %s", failed, got)
		}
		t.Logf("\t%s\tShould rebuild the ledger from the store.", success)

		accounts := replay.Accounts()
		if len(accounts) != 4 || accounts[f.bob.AccountNumber()].Balance != 100 {
			t.Fatalf("\t%s\tShould list every account: %+v", failed, accounts)
		}
		t.Logf("\t%s\tShould list every account.", success)
	}
}

func Test_AddBlockRejected(t *testing.T) {
	f := newFixture(t)
	l := f.open(t)
	ctx := context.Background()
	alice := f.alice.AccountNumber()

	tampered := f.block(t, f.alice, alice, 10, 1, 2)
	ct, _ := tampered.CoinTransfer()
	ct.Txs[0].Amount = 999
	tampered.Message = ct

	stranger, _ := account.New()

	type table struct {
		name string
		bm   models.BlockMessage
		err  error
	}

	tt := []table{
		{name: "stale-key", bm: f.block(t, f.alice, "not-the-lock", 10, 1, 2), err: ledger.ErrInvalidBalanceKey},
		{name: "bank-fee", bm: f.block(t, f.alice, alice, 10, 0, 2), err: ledger.ErrMissingFee},
		{name: "pv-fee", bm: f.block(t, f.alice, alice, 10, 1, 1), err: ledger.ErrMissingFee},
		{name: "insufficient", bm: f.block(t, f.alice, alice, 998, 1, 2), err: ledger.ErrInsufficientBalance},
		{name: "signature", bm: tampered, err: ledger.ErrInvalidSignature},
		{name: "amount", bm: f.block(t, f.alice, alice, ledger.MaxAmount+1, 1, 2), err: ledger.ErrInvalidBlock},
		{name: "unknown", bm: f.block(t, stranger, stranger.AccountNumber(), 1, 1, 2), err: ledger.ErrInsufficientBalance},
	}

	t.Log("Given the need to reject invalid blocks.")
	{
		for _, tst := range tt {
			fn := func(t *testing.T) {
				if _, err := l.AddBlock(ctx, tst.bm); !errors.Is(err, tst.err) {
					t.Fatalf("\t%s\tTest %s:\tShould get back %v, got %v.", failed, tst.name, tst.err, err)
				}
				t.Logf("\t%s\tTest %s:\tShould reject the block.", success, tst.name)
			}

			t.Run(tst.name, fn)
		}

		if got, _ := l.Balance(alice); got != 1000 {
			t.Fatalf("\t%s\tShould leave the balance untouched, got %d.", failed, got)
		}
		t.Logf("\t%s\tShould leave the balance untouched.", success)
	}
}

func Test_UpdateTrust(t *testing.T) {
	f := newFixture(t)
	l := f.open(t)
	ctx := context.Background()
	bob := f.bob.AccountNumber()

	sign := func(signer account.Account, trust int32) models.SignedMessage {
		sm, err := signer.CreateSignedMessage(models.UpdateAccountTrust{Trust: trust})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the message: %s", failed, err)
		}
		return sm
	}

	t.Log("Given the need to update account trust.")
	{
		if err := l.UpdateTrust(ctx, bob, sign(f.bank, 42)); err != nil {
			t.Fatalf("\t%s\tShould be able to update trust: %s", failed, err)
		}
		if info, _ := l.Account(bob); info.Trust != 42 {
			t.Fatalf("\t%s\tShould store the trust, got %d.", failed, info.Trust)
		}
		t.Logf("\t%s\tShould be able to update trust.", success)

		if err := l.UpdateTrust(ctx, bob, sign(f.alice, 10)); !errors.Is(err, ledger.ErrNotAuthorized) {
			t.Fatalf("\t%s\tShould reject other signers: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject other signers.", success)

		if err := l.UpdateTrust(ctx, bob, sign(f.bank, 101)); !errors.Is(err, ledger.ErrInvalidTrust) {
			t.Fatalf("\t%s\tShould reject trust out of range: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject trust out of range.", success)

		replay := f.open(t)
		if info, _ := replay.Account(bob); info.Trust != 42 {
			t.Fatalf("\t%s\tShould reload the trust, got %d.", failed, info.Trust)
		}
		t.Logf("\t%s\tShould reload the trust.", success)
	}
}

func Test_QueryTransactions(t *testing.T) {
	f := newFixture(t)
	l := f.open(t)
	ctx := context.Background()
	alice := f.alice.AccountNumber()

	if _, err := l.AddBlock(ctx, f.block(t, f.alice, alice, 5, 1, 2)); err != nil {
		t.Fatalf("\t%s\tShould be able to add the block: %s", failed, err)
	}

	t.Log("Given the need to query transactions.")
	{
		recs, count, err := l.QueryTransactions(ctx, db.Filter{Sender: alice, Fee: "NONE"})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to query: %s", failed, err)
		}
		if count != 1 || len(recs) != 1 || recs[0].Amount != 5 || recs[0].Memo != "hello" {
			t.Fatalf("\t%s\tShould get back the transaction: %d %+v", failed, count, recs)
		}
		t.Logf("\t%s\tShould get back the transaction.", success)

		recs, count, err = l.QueryTransactions(ctx, db.Filter{Limit: 1})
		if err != nil || count != 3 || len(recs) != 1 {
			t.Fatalf("\t%s\tShould get back one page: %d %d %v", failed, count, len(recs), err)
		}
		t.Logf("\t%s\tShould get back one page.", success)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) < 2 {
		t.Fatalf("\t%s\tShould publish events: %v", failed, f.events)
	}
	t.Logf("\t%s\tShould publish events.", success)
}
