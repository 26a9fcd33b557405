// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Node is the fee setting for a node in the network.
type Node struct {
	AccountNumber         string `json:"account_number"`          // The account that receives the fees.
	DefaultTransactionFee uint64 `json:"default_transaction_fee"` // Fee paid in every block sent through the node.
}

// Genesis represents the genesis file.
type Genesis struct {
	Date             time.Time         `json:"date"`
	Bank             Node              `json:"bank"`
	PrimaryValidator Node              `json:"primary_validator"`
	Balances         map[string]uint64 `json:"balances"`
}

// Validate checks the genesis can be used to start a node.
func (g Genesis) Validate() error {
	if g.Bank.AccountNumber == "" {
		return errors.New("bank account number is required")
	}

	if g.PrimaryValidator.AccountNumber == "" {
		return errors.New("primary validator account number is required")
	}

	return nil
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("validating %s: %w", path, err)
	}

	return genesis, nil
}
