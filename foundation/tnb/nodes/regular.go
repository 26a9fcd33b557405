package nodes

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ardanlabs/tnb/foundation/tnb/account"
	"github.com/ardanlabs/tnb/foundation/tnb/models"
)

// ErrNoPrimaryValidator is returned when a node has no primary validator
// in its config.
var ErrNoPrimaryValidator = errors.New("node has no primary validator")

// RegularNode is a bank that retrieves chain data and forwards blocks to
// the primary validator.
type RegularNode struct {
	*Server
	options []Option
}

// NewRegularNode constructs a client for the bank at the url.
func NewRegularNode(nodeURL string, options ...Option) (*RegularNode, error) {
	s, err := NewServer(nodeURL, options...)
	if err != nil {
		return nil, err
	}

	return &RegularNode{Server: s, options: options}, nil
}

// PrimaryValidator retrieves the primary validator selected by this bank.
func (rn *RegularNode) PrimaryValidator(ctx context.Context) (*PrimaryValidator, error) {
	cfg, err := rn.Config(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.PrimaryValidator == nil {
		return nil, ErrNoPrimaryValidator
	}

	return NewPrimaryValidator(cfg.PrimaryValidator.URL(), rn.options...)
}

// AddBlocks signs the block with the account and sends it to this bank
// to be broadcasted to the network.
func (rn *RegularNode) AddBlocks(ctx context.Context, block models.BlockType, acc account.Account) (BlockResponse, error) {
	bm, err := acc.CreateBlockMessage(block)
	if err != nil {
		return BlockResponse{}, err
	}

	var resp BlockResponse
	if err := rn.Post(ctx, "/blocks", bm, &resp); err != nil {
		return BlockResponse{}, err
	}

	return resp, nil
}

// Transactions retrieves the transactions stored by this bank. The query
// is optional and used to sort and filter the transactions.
func (rn *RegularNode) Transactions(ctx context.Context, query *models.TransactionQuery) (PaginatedResponse[TransactionResponse], error) {
	var params url.Values
	if query != nil {
		params = query.Params()
	}

	var resp PaginatedResponse[TransactionResponse]
	if err := rn.Get(ctx, "/bank_transactions", params, &resp); err != nil {
		return PaginatedResponse[TransactionResponse]{}, err
	}

	return resp, nil
}

// UpdateAccountTrust asks the bank to change the trust of an account. The
// request is signed by the node identifier account.
func (rn *RegularNode) UpdateAccountTrust(ctx context.Context, accountNumber string, trust int32, nid account.Account) error {
	data := models.UpdateAccountTrust{Trust: trust}
	if err := data.Validate(); err != nil {
		return err
	}

	sm, err := nid.CreateSignedMessage(data)
	if err != nil {
		return err
	}

	if err := rn.Patch(ctx, fmt.Sprintf("/accounts/%s", accountNumber), sm, nil); err != nil {
		return err
	}

	return nil
}
