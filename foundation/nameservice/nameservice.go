// Package nameservice reads a keystore folder and creates a name service
// lookup for the accounts it holds.
package nameservice

import (
	"fmt"

	"github.com/ardanlabs/tnb/foundation/keystore"
)

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	accounts map[string]string
}

// New constructs a name service with the accounts from the keystore folder.
// The names come from the key file names.
func New(ks *keystore.Store) (*NameService, error) {
	ns := NameService{
		accounts: make(map[string]string),
	}

	names, err := ks.Names()
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		accountNumber, err := ks.AccountNumber(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		ns.accounts[accountNumber] = name
	}

	return &ns, nil
}

// Lookup returns the name for the specified account.
func (ns *NameService) Lookup(accountNumber string) string {
	name, exists := ns.accounts[accountNumber]
	if !exists {
		return accountNumber
	}
	return name
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.accounts))
	for accountNumber, name := range ns.accounts {
		cpy[accountNumber] = name
	}
	return cpy
}
