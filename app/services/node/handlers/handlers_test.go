package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/tnb/app/services/node/handlers"
	"github.com/ardanlabs/tnb/business/core/ledger"
	"github.com/ardanlabs/tnb/business/core/ledger/db"
	"github.com/ardanlabs/tnb/business/core/ledger/genesis"
	"github.com/ardanlabs/tnb/business/web/errs"
	"github.com/ardanlabs/tnb/foundation/events"
	"github.com/ardanlabs/tnb/foundation/logger"
	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
	"github.com/ardanlabs/tnb/foundation/tnb/wallet"
	"github.com/gorilla/websocket"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type network struct {
	bank      *httptest.Server
	validator *httptest.Server
	bankNID   account.Account
	alice     account.Account
	evts      *events.Events
}

func newNetwork(t *testing.T) *network {
	t.Helper()

	var accs [5]account.Account
	for i := range accs {
		acc, err := account.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate an account: %s", failed, err)
		}
		accs[i] = acc
	}
	alice, bankFees, pvFees, bankNID, pvNID := accs[0], accs[1], accs[2], accs[3], accs[4]

	store, err := db.Open(filepath.Join(t.TempDir(), "blocks.db"))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open the store: %s", failed, err)
	}
	t.Cleanup(func() { store.Close() })

	gen := genesis.Genesis{
		Bank:             genesis.Node{AccountNumber: bankFees.AccountNumber(), DefaultTransactionFee: 1},
		PrimaryValidator: genesis.Node{AccountNumber: pvFees.AccountNumber(), DefaultTransactionFee: 2},
		Balances:         map[string]uint64{alice.AccountNumber(): 1000},
	}

	evts := events.New()
	l, err := ledger.New(context.Background(), ledger.Config{
		Genesis:            gen,
		Storer:             store,
		BankNodeIdentifier: bankNID.AccountNumber(),
		EvHandler:          func(v string, args ...any) { evts.Send(v) },
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the ledger: %s", failed, err)
	}

	log := logger.NewNop()
	shutdown := make(chan os.Signal, 1)

	pvCfg := nodes.ConfigResponse{
		AccountNumber:         gen.PrimaryValidator.AccountNumber,
		NodeIdentifier:        pvNID.AccountNumber(),
		DefaultTransactionFee: gen.PrimaryValidator.DefaultTransactionFee,
		NodeType:              models.PrimaryValidator,
		Protocol:              "http",
	}

	validator := httptest.NewUnstartedServer(nil)
	host, port := splitHostPort(validator.Listener.Addr().String())
	pvCfg.IPAddress, pvCfg.Port = host, port
	validator.Config.Handler = handlers.ValidatorMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		Ledger:     l,
		NodeConfig: pvCfg,
	})
	validator.Start()
	t.Cleanup(validator.Close)

	bankCfg := nodes.ConfigResponse{
		AccountNumber:         gen.Bank.AccountNumber,
		NodeIdentifier:        bankNID.AccountNumber(),
		DefaultTransactionFee: gen.Bank.DefaultTransactionFee,
		NodeType:              models.Bank,
		PrimaryValidator: &nodes.PrimaryValidatorConfig{
			AccountNumber:         pvCfg.AccountNumber,
			NodeIdentifier:        pvCfg.NodeIdentifier,
			IPAddress:             pvCfg.IPAddress,
			Port:                  pvCfg.Port,
			Protocol:              pvCfg.Protocol,
			DefaultTransactionFee: pvCfg.DefaultTransactionFee,
		},
	}

	bank := httptest.NewServer(handlers.BankMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		Ledger:     l,
		NodeConfig: bankCfg,
		Evts:       evts,
	}))
	t.Cleanup(bank.Close)

	n := network{
		bank:      bank,
		validator: validator,
		bankNID:   bankNID,
		alice:     alice,
		evts:      evts,
	}

	return &n
}

func splitHostPort(addr string) (string, uint16) {
	i := strings.LastIndex(addr, ":")
	port, _ := strconv.Atoi(addr[i+1:])
	return addr[:i], uint16(port)
}

// =============================================================================

func Test_Wallet(t *testing.T) {
	n := newNetwork(t)
	ctx := context.Background()

	bob, err := account.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate an account: %s", failed, err)
	}

	t.Log("Given the need to send coins through the node.")
	{
		w, err := wallet.New(n.alice, n.bank.URL)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the wallet: %s", failed, err)
		}

		if err := w.Init(ctx); err != nil {
			t.Fatalf("\t%s\tShould be able to init the wallet: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to init the wallet.", success)

		for i := 0; i < 3; i++ {
			if _, err := w.SendTransaction(ctx, models.NewTransactionWithMemo(bob.AccountNumber(), 10, "round "+strconv.Itoa(i))); err != nil {
				t.Fatalf("\t%s\tShould be able to send block %d: %s", failed, i, err)
			}
		}
		t.Logf("\t%s\tShould be able to send consecutive blocks.", success)

		balance, found, err := w.Balance(ctx)
		if err != nil || !found || balance != 1000-3*13 {
			t.Fatalf("\t%s\tShould have the correct balance: %d %v %v", failed, balance, found, err)
		}
		t.Logf("\t%s\tShould have the correct balance.", success)

		rn, err := nodes.NewRegularNode(n.bank.URL)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the bank client: %s", failed, err)
		}

		page, err := rn.Transactions(ctx, models.NewTransactionQuery().Recipient(bob.AccountNumber()).Limit(2))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to list transactions: %s", failed, err)
		}
		if page.Count != 3 || len(page.Results) != 2 || page.Next == nil || page.Previous != nil {
			t.Fatalf("\t%s\tShould get back the first page: %+v", failed, page)
		}

		next, err := page.NextPage(ctx, rn.Server)
		if err != nil || len(next.Results) != 1 || next.Next != nil || next.Previous == nil {
			t.Fatalf("\t%s\tShould get back the last page: %+v %v", failed, next, err)
		}
		t.Logf("\t%s\tShould be able to page through transactions.", success)
	}

	t.Log("Given the need to reject bad blocks.")
	{
		rn, _ := nodes.NewRegularNode(n.bank.URL)

		ct, _ := models.NewCoinTransfer(n.alice.AccountNumber(), []models.Transaction{models.NewTransaction(bob.AccountNumber(), 1)})
		_, err := rn.AddBlocks(ctx, ct, n.alice)

		var re *nodes.ResponseError
		if !errors.As(err, &re) || re.Status != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould reject a stale balance key: %v", failed, err)
		}

		var er errs.Response
		if err := json.Unmarshal([]byte(re.Body), &er); err != nil || er.Error == "" {
			t.Fatalf("\t%s\tShould get back an error response: %s", failed, re.Body)
		}
		t.Logf("\t%s\tShould reject a stale balance key.", success)
	}
}

func Test_Validation(t *testing.T) {
	n := newNetwork(t)

	body := `{"account_number":"xyz","message":{"balance_key":"k","txs":[{"amount":0,"recipient":"abc","memo":"bad!"}]},"signature":"s"}`
	resp, err := http.Post(n.bank.URL+"/blocks", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to post: %s", failed, err)
	}
	defer resp.Body.Close()

	var er errs.Response
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("\t%s\tShould be able to decode the response: %s", failed, err)
	}

	if resp.StatusCode != http.StatusBadRequest || len(er.Fields) == 0 {
		t.Fatalf("\t%s\tShould get back field errors: %d %+v", failed, resp.StatusCode, er)
	}
	for _, field := range []string{"account_number", "signature"} {
		if er.Fields[field] == "" {
			t.Fatalf("\t%s\tShould report field %s: %+v", failed, field, er.Fields)
		}
	}
	t.Logf("\t%s\tShould get back field errors.", success)
}

func Test_AccountNumberCase(t *testing.T) {
	n := newNetwork(t)
	ctx := context.Background()

	bob, err := account.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate an account: %s", failed, err)
	}
	upper := strings.ToUpper(bob.AccountNumber())

	rn, err := nodes.NewRegularNode(n.bank.URL)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the bank client: %s", failed, err)
	}

	pv, err := nodes.NewPrimaryValidator(n.validator.URL)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the validator client: %s", failed, err)
	}

	isBadRequest := func(err error) bool {
		var re *nodes.ResponseError
		return errors.As(err, &re) && re.Status == http.StatusBadRequest
	}

	t.Log("Given the need to keep a single ledger entry per account.")
	{
		txs := []models.Transaction{
			models.NewTransaction(upper, 10),
			{Amount: 1, Fee: models.Bank, Recipient: strings.Repeat("0", 64)},
			{Amount: 2, Fee: models.PrimaryValidator, Recipient: strings.Repeat("1", 64)},
		}
		ct, _ := models.NewCoinTransfer(n.alice.AccountNumber(), txs)

		if _, err := rn.AddBlocks(ctx, ct, n.alice); !isBadRequest(err) {
			t.Fatalf("\t%s\tShould reject an uppercase recipient: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an uppercase recipient.", success)

		bal, err := pv.AccountBalance(ctx, n.alice.AccountNumber())
		if err != nil || bal.Balance == nil || *bal.Balance != 1000 {
			t.Fatalf("\t%s\tShould leave the sender balance untouched: %+v %v", failed, bal, err)
		}
		t.Logf("\t%s\tShould leave the sender balance untouched.", success)

		if _, err := pv.AccountBalance(ctx, strings.ToUpper(n.alice.AccountNumber())); !isBadRequest(err) {
			t.Fatalf("\t%s\tShould reject an uppercase balance lookup: %v", failed, err)
		}

		if _, err := pv.AccountBalanceLock(ctx, "not-an-account"); !isBadRequest(err) {
			t.Fatalf("\t%s\tShould reject a malformed balance lock lookup: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject malformed account numbers on the validator.", success)

		if err := rn.UpdateAccountTrust(ctx, upper, 50, n.bankNID); !isBadRequest(err) {
			t.Fatalf("\t%s\tShould reject an uppercase trust target: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an uppercase trust target.", success)
	}
}

func Test_AmountBound(t *testing.T) {
	n := newNetwork(t)

	recipient := strings.Repeat("ab", 32)
	body := `{"account_number":"` + n.alice.AccountNumber() + `","message":{"balance_key":"k","txs":[{"amount":9223372036854775808,"recipient":"` + recipient + `"}]},"signature":"` + strings.Repeat("cd", 64) + `"}`

	resp, err := http.Post(n.bank.URL+"/blocks", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to post: %s", failed, err)
	}
	defer resp.Body.Close()

	var er errs.Response
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("\t%s\tShould be able to decode the response: %s", failed, err)
	}

	if resp.StatusCode != http.StatusBadRequest || er.Fields["amount"] == "" {
		t.Fatalf("\t%s\tShould reject an amount the store can't hold: %d %+v", failed, resp.StatusCode, er)
	}
	t.Logf("\t%s\tShould reject an amount the store can't hold.", success)
}

func Test_UpdateTrust(t *testing.T) {
	n := newNetwork(t)
	ctx := context.Background()

	rn, err := nodes.NewRegularNode(n.bank.URL)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the bank client: %s", failed, err)
	}

	t.Log("Given the need to update account trust.")
	{
		if err := rn.UpdateAccountTrust(ctx, n.alice.AccountNumber(), 80, n.bankNID); err != nil {
			t.Fatalf("\t%s\tShould be able to update trust: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to update trust.", success)

		err := rn.UpdateAccountTrust(ctx, n.alice.AccountNumber(), 80, n.alice)

		var re *nodes.ResponseError
		if !errors.As(err, &re) || re.Status != http.StatusUnauthorized {
			t.Fatalf("\t%s\tShould reject other signers: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject other signers.", success)
	}
}

func Test_Validator(t *testing.T) {
	n := newNetwork(t)
	ctx := context.Background()

	pv, err := nodes.NewPrimaryValidator(n.validator.URL)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the validator client: %s", failed, err)
	}

	t.Log("Given the need to read balances from the validator.")
	{
		cfg, err := pv.Config(ctx)
		if err != nil || cfg.NodeType != models.PrimaryValidator || cfg.PrimaryValidator != nil {
			t.Fatalf("\t%s\tShould get back the validator config: %+v %v", failed, cfg, err)
		}
		t.Logf("\t%s\tShould get back the validator config.", success)

		bal, err := pv.AccountBalance(ctx, n.alice.AccountNumber())
		if err != nil || bal.Balance == nil || *bal.Balance != 1000 {
			t.Fatalf("\t%s\tShould get back the balance: %+v %v", failed, bal, err)
		}

		lock, err := pv.AccountBalanceLock(ctx, n.alice.AccountNumber())
		if err != nil || lock.BalanceLock == nil || *lock.BalanceLock != n.alice.AccountNumber() {
			t.Fatalf("\t%s\tShould get back the balance lock: %+v %v", failed, lock, err)
		}
		t.Logf("\t%s\tShould get back the balance and lock of a known account.", success)

		bal, err = pv.AccountBalance(ctx, strings.Repeat("0", 64))
		if err != nil || bal.Balance != nil {
			t.Fatalf("\t%s\tShould get back a null balance: %+v %v", failed, bal, err)
		}
		t.Logf("\t%s\tShould get back a null balance for an unknown account.", success)
	}
}

func Test_Events(t *testing.T) {
	n := newNetwork(t)

	u, _ := url.Parse(n.bank.URL)
	u.Scheme = "ws"
	u.Path = "/events"

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open the websocket: %s", failed, err)
	}
	defer c.Close()

	// The handler registers its channel after the upgrade completes.
	for n.evts.Len() == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	n.evts.Send("hello")

	_, msg, err := c.ReadMessage()
	if err != nil || string(msg) != "hello" {
		t.Fatalf("\t%s\tShould receive the event: %q %v", failed, msg, err)
	}
	t.Logf("\t%s\tShould receive events over the websocket.", success)
}
