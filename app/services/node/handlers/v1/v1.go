// Package v1 contains the full set of handler functions and routes
// supported by the bank and validator apis. The network's paths carry
// no version prefix.
package v1

import (
	"net/http"

	"github.com/ardanlabs/tnb/app/services/node/handlers/v1/bankgrp"
	"github.com/ardanlabs/tnb/app/services/node/handlers/v1/validatorgrp"
	"github.com/ardanlabs/tnb/business/core/ledger"
	"github.com/ardanlabs/tnb/foundation/events"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
	"github.com/ardanlabs/tnb/foundation/web"
	"go.uber.org/zap"
)

const version = ""

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log        *zap.SugaredLogger
	Ledger     *ledger.Ledger
	NodeConfig nodes.ConfigResponse
	Evts       *events.Events
}

// BankRoutes binds all the bank routes.
func BankRoutes(app *web.App, cfg Config) {
	bnk := bankgrp.Handlers{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		Config: cfg.NodeConfig,
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/config", bnk.NodeConfig)
	app.Handle(http.MethodPost, version, "/blocks", bnk.AddBlock)
	app.Handle(http.MethodGet, version, "/bank_transactions", bnk.Transactions)
	app.Handle(http.MethodPatch, version, "/accounts/:account_number", bnk.UpdateAccountTrust)
	app.Handle(http.MethodGet, version, "/events", bnk.Events)
}

// ValidatorRoutes binds all the primary validator routes.
func ValidatorRoutes(app *web.App, cfg Config) {
	val := validatorgrp.Handlers{
		Log:    cfg.Log,
		Ledger: cfg.Ledger,
		Config: cfg.NodeConfig,
	}

	app.Handle(http.MethodGet, version, "/config", val.NodeConfig)
	app.Handle(http.MethodGet, version, "/accounts/:account_number/balance", val.Balance)
	app.Handle(http.MethodGet, version, "/accounts/:account_number/balance_lock", val.BalanceLock)
}
