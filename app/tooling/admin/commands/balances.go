// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/ardanlabs/tnb/business/core/ledger"
)

// Balances prints the balance sheet, or only the specified account.
func Balances(w io.Writer, l *ledger.Ledger, onlyAccount string) error {
	accounts := l.Accounts()

	names := make([]string, 0, len(accounts))
	for accountNumber := range accounts {
		if onlyAccount != "" && accountNumber != onlyAccount {
			continue
		}
		names = append(names, accountNumber)
	}
	sort.Strings(names)

	for _, accountNumber := range names {
		info := accounts[accountNumber]
		lock, _ := l.BalanceLock(accountNumber)
		fmt.Fprintf(w, "Account: %s  Balance: %d  Trust: %d  Lock: %s\n", accountNumber, info.Balance, info.Trust, lock)
	}

	return nil
}
