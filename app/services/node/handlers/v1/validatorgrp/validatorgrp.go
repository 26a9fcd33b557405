// Package validatorgrp maintains the group of handlers the primary
// validator serves to wallets and banks.
package validatorgrp

import (
	"context"
	"net/http"

	"github.com/ardanlabs/tnb/business/core/ledger"
	"github.com/ardanlabs/tnb/business/sys/validate"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
	"github.com/ardanlabs/tnb/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of validator endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	Config nodes.ConfigResponse
}

// NodeConfig returns the config of the validator.
func (h Handlers) NodeConfig(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Config, http.StatusOK)
}

// Balance returns the coins held by the account, null when the account
// is unknown.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountNumber := web.Param(r, "account_number")
	if err := validate.AccountNumber("account_number", accountNumber); err != nil {
		return err
	}

	var resp nodes.AccountBalanceResponse
	if balance, exists := h.Ledger.Balance(accountNumber); exists {
		resp.Balance = &balance
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BalanceLock returns the balance key the account's next block must use,
// null when the account is unknown.
func (h Handlers) BalanceLock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountNumber := web.Param(r, "account_number")
	if err := validate.AccountNumber("account_number", accountNumber); err != nil {
		return err
	}

	var resp nodes.AccountBalanceLockResponse
	if lock, exists := h.Ledger.BalanceLock(accountNumber); exists {
		resp.BalanceLock = &lock
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
