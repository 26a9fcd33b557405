// Package bankgrp maintains the group of handlers a bank serves to wallets.
package bankgrp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ardanlabs/tnb/business/core/ledger"
	"github.com/ardanlabs/tnb/business/core/ledger/db"
	"github.com/ardanlabs/tnb/business/sys/validate"
	"github.com/ardanlabs/tnb/business/web/errs"
	"github.com/ardanlabs/tnb/foundation/events"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
	"github.com/ardanlabs/tnb/foundation/tnb/nodes"
	"github.com/ardanlabs/tnb/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultLimit is the page size used when a request doesn't provide one.
const DefaultLimit = 20

// Ledger failures a client can act on.
var (
	blockStatuses = errs.Statuses{
		{Err: ledger.ErrInvalidSignature, Code: http.StatusUnauthorized},
		{Err: ledger.ErrInvalidBlock, Code: http.StatusBadRequest},
		{Err: ledger.ErrInvalidBalanceKey, Code: http.StatusBadRequest},
		{Err: ledger.ErrInsufficientBalance, Code: http.StatusBadRequest},
		{Err: ledger.ErrMissingFee, Code: http.StatusBadRequest},
	}

	trustStatuses = errs.Statuses{
		{Err: ledger.ErrNotAuthorized, Code: http.StatusUnauthorized},
		{Err: ledger.ErrInvalidSignature, Code: http.StatusUnauthorized},
		{Err: ledger.ErrInvalidTrust, Code: http.StatusBadRequest},
	}

	queryStatuses = errs.Statuses{
		{Err: db.ErrInvalidOrdering, Code: http.StatusBadRequest},
	}
)

// Handlers manages the set of bank endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Ledger *ledger.Ledger
	Config nodes.ConfigResponse
	WS     websocket.Upgrader
	Evts   *events.Events
}

// NodeConfig returns the config of the bank.
func (h Handlers) NodeConfig(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Config, http.StatusOK)
}

// AddBlock verifies a signed block and applies it to the ledger.
func (h Handlers) AddBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ab appBlock
	if err := web.Decode(r, &ab); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add block", "traceid", web.GetTraceID(ctx), "sender", ab.AccountNumber, "txs", len(ab.Message.Txs))

	blk, err := h.Ledger.AddBlock(ctx, toBlockMessage(ab))
	if err != nil {
		return blockStatuses.Trust(err, "add block")
	}

	return web.Respond(ctx, w, toBlockResponse(blk), http.StatusCreated)
}

// Transactions returns a page of the transactions stored by the bank.
func (h Handlers) Transactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	recs, count, err := h.Ledger.QueryTransactions(ctx, filter)
	if err != nil {
		return queryStatuses.Trust(err, "query")
	}

	resp := nodes.PaginatedResponse[nodes.TransactionResponse]{
		Count:   count,
		Results: make([]nodes.TransactionResponse, len(recs)),
	}

	for i, rec := range recs {
		resp.Results[i] = toTransactionResponse(rec)
	}

	resp.Next, resp.Previous = pageLinks(r, filter, count)

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UpdateAccountTrust changes the trust of an account. The request must be
// signed by the bank's node identifier.
func (h Handlers) UpdateAccountTrust(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountNumber := web.Param(r, "account_number")
	if err := validate.AccountNumber("account_number", accountNumber); err != nil {
		return err
	}

	var sm models.SignedMessage
	if err := web.Decode(r, &sm); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.Ledger.UpdateTrust(ctx, accountNumber, sm); err != nil {
		return trustStatuses.Trust(err, "update trust")
	}

	info, _ := h.Ledger.Account(accountNumber)
	resp := appTrust{
		AccountNumber: accountNumber,
		Trust:         info.Trust,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the ledger.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

func parseFilter(q url.Values) (db.Filter, error) {
	filter := db.Filter{
		AccountNumber: q.Get("account_number"),
		Sender:        first(q, "sender", "block__sender"),
		Recipient:     q.Get("recipient"),
		Fee:           q.Get("fee"),
		BalanceKey:    first(q, "balance_key", "block__balance_key"),
		ID:            q.Get("id"),
		Ordering:      q.Get("ordering"),
		Limit:         DefaultLimit,
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return db.Filter{}, fmt.Errorf("invalid limit %q", v)
		}
		filter.Limit = min(limit, models.MaxLimit)
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return db.Filter{}, fmt.Errorf("invalid offset %q", v)
		}
		filter.Offset = offset
	}

	switch models.NodeType(filter.Fee) {
	case "", models.Bank, models.PrimaryValidator, models.None:
	default:
		return db.Filter{}, fmt.Errorf("invalid fee %q", filter.Fee)
	}

	return filter, nil
}

func first(q url.Values, keys ...string) string {
	for _, key := range keys {
		if v := q.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// pageLinks builds the next and previous links from the request url.
func pageLinks(r *http.Request, filter db.Filter, count uint64) (*string, *string) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	link := func(offset int) *string {
		q := r.URL.Query()
		q.Set("limit", strconv.Itoa(filter.Limit))
		q.Set("offset", strconv.Itoa(offset))

		u := url.URL{
			Scheme:   scheme,
			Host:     r.Host,
			Path:     r.URL.Path,
			RawQuery: q.Encode(),
		}
		s := u.String()
		return &s
	}

	var next, prev *string

	if uint64(filter.Offset+filter.Limit) < count {
		next = link(filter.Offset + filter.Limit)
	}

	if filter.Offset > 0 {
		prev = link(max(filter.Offset-filter.Limit, 0))
	}

	return next, prev
}
