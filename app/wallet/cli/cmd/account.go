package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showSigningKey bool

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the account number of the wallet",
	RunE:  accountRun,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the accounts in the key file directory",
	RunE:  listRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(listCmd)
	accountCmd.Flags().BoolVarP(&showSigningKey, "signing-key", "k", false, "Print the signing key as well.")
}

func accountRun(cmd *cobra.Command, args []string) error {
	acc, err := loadAccount()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, acc.AccountNumber())
	if showSigningKey {
		fmt.Fprintln(out, acc.SigningKey())
	}

	return nil
}

func listRun(cmd *cobra.Command, args []string) error {
	ks := keyStore()

	names, err := ks.Names()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range names {
		accountNumber, err := ks.AccountNumber(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-20s %s\n", name, accountNumber)
	}

	return nil
}
