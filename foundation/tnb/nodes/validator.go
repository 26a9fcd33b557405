package nodes

import (
	"context"
	"fmt"
)

// Validator provides the endpoints shared by every validator node.
type Validator struct {
	*Server
}

// AccountBalance retrieves the number of coins in an account.
func (v Validator) AccountBalance(ctx context.Context, accountNumber string) (AccountBalanceResponse, error) {
	var resp AccountBalanceResponse
	if err := v.Get(ctx, fmt.Sprintf("/accounts/%s/balance", accountNumber), nil, &resp); err != nil {
		return AccountBalanceResponse{}, err
	}
	return resp, nil
}

// AccountBalanceLock retrieves the balance lock for an account's next
// transaction.
func (v Validator) AccountBalanceLock(ctx context.Context, accountNumber string) (AccountBalanceLockResponse, error) {
	var resp AccountBalanceLockResponse
	if err := v.Get(ctx, fmt.Sprintf("/accounts/%s/balance_lock", accountNumber), nil, &resp); err != nil {
		return AccountBalanceLockResponse{}, err
	}
	return resp, nil
}

// =============================================================================

// PrimaryValidator is the validator that confirms blocks for the network.
type PrimaryValidator struct {
	Validator
}

// NewPrimaryValidator constructs a client for the primary validator at the url.
func NewPrimaryValidator(nodeURL string, options ...Option) (*PrimaryValidator, error) {
	s, err := NewServer(nodeURL, options...)
	if err != nil {
		return nil, err
	}

	return &PrimaryValidator{Validator{Server: s}}, nil
}

// ConfirmationValidator keeps a copy of the chain confirmed by the
// primary validator.
type ConfirmationValidator struct {
	Validator
}

// NewConfirmationValidator constructs a client for the confirmation
// validator at the url.
func NewConfirmationValidator(nodeURL string, options ...Option) (*ConfirmationValidator, error) {
	s, err := NewServer(nodeURL, options...)
	if err != nil {
		return nil, err
	}

	return &ConfirmationValidator{Validator{Server: s}}, nil
}
